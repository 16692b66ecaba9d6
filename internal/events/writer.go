package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type EventPayload map[string]any

// Event is one journal entry describing a completed store mutation.
type Event struct {
	ID       int64        `json:"id"`
	TS       string       `json:"ts" format:"date-time"`
	Domain   string       `json:"domain"`
	Op       string       `json:"op"`
	EntityID string       `json:"entity_id,omitempty"`
	Payload  EventPayload `json:"payload,omitempty"`
}

// Writer appends events to the workspace database.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

func (w Writer) Append(ctx context.Context, evt Event) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339Nano)
	payload := evt.Payload
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = w.DB.ExecContext(ctx, `INSERT INTO events(ts,domain,op,entity_id,payload_json) VALUES (?,?,?,?,?)`,
		ts, evt.Domain, evt.Op, nullable(evt.EntityID), string(data))
	return err
}

// Latest returns up to n most recent events, newest first, optionally for one domain.
func (w Writer) Latest(ctx context.Context, n int, domain string) ([]Event, error) {
	if n <= 0 {
		n = 20
	}
	var clauses []string
	var args []any
	if domain != "" {
		clauses = append(clauses, "domain=?")
		args = append(args, domain)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	args = append(args, n)
	rows, err := w.DB.QueryContext(ctx, `SELECT id,ts,domain,op,COALESCE(entity_id,''),payload_json FROM events `+where+` ORDER BY id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		var e Event
		var payload string
		if err := rows.Scan(&e.ID, &e.TS, &e.Domain, &e.Op, &e.EntityID, &payload); err != nil {
			return nil, err
		}
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
				return nil, fmt.Errorf("decode event %d payload: %w", e.ID, err)
			}
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
