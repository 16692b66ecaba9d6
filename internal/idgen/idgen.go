// Package idgen provides the opaque unique-id generators used for projects and tasks.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

const DefaultNanoIDLength = 21

// Generator returns a fresh, practically collision-free id on every call.
type Generator interface {
	NewID() string
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) NewID() string { return f() }

// NanoID returns a URL-safe nanoid generator of the given length.
func NanoID(length int) (Generator, error) {
	if length <= 0 {
		length = DefaultNanoIDLength
	}
	gen, err := nanoid.Standard(length)
	if err != nil {
		return nil, fmt.Errorf("nanoid generator: %w", err)
	}
	return Func(gen), nil
}

// UUID returns a random (v4) UUID generator.
func UUID() Generator {
	return Func(func() string { return uuid.NewString() })
}

// Sequence yields prefix-1, prefix-2, ... for deterministic tests.
func Sequence(prefix string) Generator {
	n := 0
	return Func(func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	})
}

// New picks a generator by config name.
func New(kind string, length int) (Generator, error) {
	switch kind {
	case "", "nanoid":
		return NanoID(length)
	case "uuid":
		return UUID(), nil
	default:
		return nil, fmt.Errorf("unknown id generator %q", kind)
	}
}
