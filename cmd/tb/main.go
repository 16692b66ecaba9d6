package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/domain"
	"taskboard/internal/server"
	"taskboard/internal/view"
)

var rootCmd = &cobra.Command{
	Use:   "tb",
	Short: "Taskboard CLI",
	Long: `Taskboard keeps projects and tasks for a single user in a local workspace.
- Workspace: the .taskboard directory holding the database, plus an optional taskboard.yml.
- Projects: named groups; deleting one also deletes its tasks.
- Tasks: title, description, due date and a status of pending, in-progress or completed.
- Session: log in with any email and password; other commands need a session.
- Filters: 'tb task list' narrows by project, text, status and due bucket (overdue, today, upcoming).
- Journal: every change is recorded; view it with 'tb log tail'.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TASKBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("backend", "", "storage backend override (sqlite, memory, redis)")
	rootCmd.PersistentFlags().String("redis-addr", "", "redis address override")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("redis-addr", rootCmd.PersistentFlags().Lookup("redis-addr"))
}

func registerCommands() {
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(storageCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in (any password is accepted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Login(ctx, email, password); err != nil {
					return err
				}
				return printJSONOrTable(a.Auth.State())
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Auth.Logout(ctx); err != nil {
					return err
				}
				fmt.Println("logged out")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return printJSONOrTable(a.Auth.State())
			})
		},
	}
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectAddCmd())
	prj.AddCommand(projectRenameCmd())
	prj.AddCommand(projectDeleteCmd())
	prj.AddCommand(projectUseCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items := a.Projects.Items()
				if viper.GetBool("json") {
					return printJSON(items)
				}
				selected := selectedProject()
				counts := map[string]int{}
				for _, t := range a.Tasks.Items() {
					counts[t.ProjectID]++
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"", "ID", "Name", "Tasks", "Created"})
				for _, p := range items {
					mark := ""
					if p.ID == selected {
						mark = "*"
					}
					tw.AppendRow(table.Row{mark, p.ID, p.Name, counts[p.ID], p.CreatedAt.In(a.Location).Format(time.DateOnly)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func projectAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("project name is required")
			}
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				p, err := a.Projects.Add(ctx, name)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func projectRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[1])
			if name == "" {
				return fmt.Errorf("project name is required")
			}
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Projects.Rename(ctx, args[0], name); err != nil {
					return err
				}
				p, ok := a.Projects.Get(args[0])
				if !ok {
					return fmt.Errorf("project %s not found", args[0])
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.DeleteProject(ctx, args[0])
			})
		},
	}
}

func projectUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Select the project new tasks default to (empty id clears)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			workspace := viper.GetString("workspace")
			if err := setEnvValue(filepath.Join(workspace, ".env"), "TASKBOARD_PROJECT", projectID); err != nil {
				return err
			}
			fmt.Printf("Set TASKBOARD_PROJECT=%s in %s/.env\n", projectID, workspace)
			return nil
		},
	}
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  "Tasks carry a title, description, due date and status (pending, in-progress, completed). A task may belong to one project or none.",
	}
	task.AddCommand(taskAddCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskGetCmd())
	task.AddCommand(taskUpdateCmd())
	task.AddCommand(taskStatusCmd())
	task.AddCommand(taskToggleCmd())
	task.AddCommand(taskDeleteCmd())
	return task
}

func taskAddCmd() *cobra.Command {
	var title, description, due, status, project string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("--title required")
			}
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				dueDate, err := app.ParseDueDate(due, a.Location)
				if err != nil {
					return err
				}
				in := domain.TaskInput{Title: title, Description: description, DueDate: dueDate, ProjectID: project}
				if status != "" {
					if in.Status, err = domain.ParseStatus(status); err != nil {
						return err
					}
				}
				t, err := a.Tasks.Add(ctx, app.NewTaskInput(in, selectedProject()))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&status, "status", "", "status (default pending)")
	cmd.Flags().StringVar(&project, "project", "", "project id (defaults to the selected project)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func taskListCmd() *cobra.Command {
	var project, query, status, due string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := view.ParseStatus(status)
			if err != nil {
				return err
			}
			bucket, err := view.ParseDue(due)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				tasks := a.ListTasks(view.Filter{ProjectID: project, Query: query, Status: st, Due: bucket})
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				names := map[string]string{}
				for _, p := range a.Projects.Items() {
					names[p.ID] = p.Name
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Due", "Project"})
				for _, t := range tasks {
					tw.AppendRow(table.Row{t.ID, t.Title, t.Status, t.DueDate.In(a.Location).Format(time.DateOnly), names[t.ProjectID]})
				}
				tw.AppendFooter(table.Row{"", fmt.Sprintf("%d task(s)", len(tasks))})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project id")
	cmd.Flags().StringVarP(&query, "query", "q", "", "text in title or description")
	cmd.Flags().StringVar(&status, "status", view.StatusAll, "all, pending, in-progress or completed")
	cmd.Flags().StringVar(&due, "due", string(view.DueAll), "all, overdue, today or upcoming")
	return cmd
}

func taskGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				t, ok := a.Tasks.Get(args[0])
				if !ok {
					return fmt.Errorf("task %s not found", args[0])
				}
				return printJSONOrTable(t)
			})
		},
	}
}

func taskUpdateCmd() *cobra.Command {
	var title, description, due, status, project string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				var patch domain.TaskPatch
				if cmd.Flags().Changed("title") {
					patch.Title = &title
				}
				if cmd.Flags().Changed("description") {
					patch.Description = &description
				}
				if cmd.Flags().Changed("due") {
					d, err := app.ParseDueDate(due, a.Location)
					if err != nil {
						return err
					}
					patch.DueDate = &d
				}
				if cmd.Flags().Changed("status") {
					st, err := domain.ParseStatus(status)
					if err != nil {
						return err
					}
					patch.Status = &st
				}
				if cmd.Flags().Changed("project") {
					patch.ProjectID = &project
				}
				if err := a.Tasks.Update(ctx, args[0], patch); err != nil {
					return err
				}
				t, ok := a.Tasks.Get(args[0])
				if !ok {
					return fmt.Errorf("task %s not found", args[0])
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&due, "due", "", "new due date")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&project, "project", "", "new project id (empty unassigns)")
	return cmd
}

func taskStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set task status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := domain.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Tasks.SetStatus(ctx, args[0], st)
			})
		},
	}
}

func taskToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a task between completed and pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Tasks.Toggle(ctx, args[0]); err != nil {
					return err
				}
				if t, ok := a.Tasks.Get(args[0]); ok {
					return printJSONOrTable(t)
				}
				return nil
			})
		},
	}
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Tasks.Delete(ctx, args[0])
			})
		},
	}
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Inspect the change journal"}
	lg.AddCommand(logTailCmd())
	return lg
}

func logTailCmd() *cobra.Command {
	var n int
	var domainFilter string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if a.Journal == nil {
					return fmt.Errorf("journal is disabled (sqlite backend with journal.enabled required)")
				}
				events, err := a.Journal.Latest(ctx, n, domainFilter)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 20, "number of events")
	cmd.Flags().StringVar(&domainFilter, "domain", "", "auth, projects or tasks")
	return cmd
}

func storageCmd() *cobra.Command {
	st := &cobra.Command{Use: "storage", Short: "Manage persisted state"}
	st.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every persisted snapshot (session, projects, tasks)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Adapter.Clear(ctx); err != nil {
					return err
				}
				fmt.Println("storage cleared")
				return nil
			})
		},
	})
	return st
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "taskboard.yml selects the storage backend, id generator, token kind, display timezone and journal.",
	}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configInitCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default taskboard.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				handler, err := server.New(server.Config{App: a, BasePath: basePath, Logger: a.Logger})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Taskboard API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

// loadConfig reads taskboard.yml and applies flag/env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOptional(viper.GetString("workspace"))
	if err != nil {
		return nil, err
	}
	if b := viper.GetString("backend"); b != "" {
		cfg.Storage.Backend = b
	}
	if addr := viper.GetString("redis-addr"); addr != "" {
		cfg.Storage.Redis.Addr = addr
	}
	if secret := viper.GetString("jwt-secret"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.Open(ctx, viper.GetString("workspace"), cfg, app.Options{Logger: log.Default()})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// withSession is withApp behind the login gate.
func withSession(ctx context.Context, fn func(context.Context, *app.App) error) error {
	return withApp(ctx, func(ctx context.Context, a *app.App) error {
		if err := a.RequireLogin(); err != nil {
			return err
		}
		return fn(ctx, a)
	})
}

// selectedProject prefers TASKBOARD_PROJECT from the environment, then the
// workspace .env written by 'tb project use'.
func selectedProject() string {
	if p := viper.GetString("project"); p != "" {
		return p
	}
	v := viper.New()
	v.SetConfigFile(filepath.Join(viper.GetString("workspace"), ".env"))
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return ""
	}
	return v.GetString("TASKBOARD_PROJECT")
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setEnvValue(path, key, value string) error {
	var lines []string
	seen := false
	f, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				seen = true
			} else {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return err
		}
		f.Close()
	} else if !os.IsNotExist(err) {
		return err
	}
	if !seen {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	content := strings.Join(lines, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
