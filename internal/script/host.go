// Package script runs content scripts that react to server events such as
// a player logging in or typing a command.
package script

import (
	"errors"
	"fmt"
)

// ErrNoSuchFunction is returned by Invoke when no script defines name.
var ErrNoSuchFunction = errors.New("no such script function")

// Func is a Go function exposed to scripts. Arguments arrive as int64,
// float64, string, bool or nil; results are pushed back the same way.
type Func func(args []any) ([]any, error)

// Host loads scripts and invokes the functions they define. Hosts are not
// reentrant: a Func must not call Invoke.
type Host interface {
	Invoke(name string, args ...any) error
	LoadAll(dir string) error
	Register(name string, fn Func)
	Close() error
}

// Nop is the host used when no scripts are configured. Every function is
// missing.
type Nop struct{}

func (Nop) Invoke(name string, _ ...any) error {
	return fmt.Errorf("%w: %s", ErrNoSuchFunction, name)
}

func (Nop) LoadAll(string) error  { return nil }
func (Nop) Register(string, Func) {}
func (Nop) Close() error          { return nil }

// ArgInt reads an integer argument.
func ArgInt(args []any, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("argument %d missing", i+1)
	}
	switch v := args[i].(type) {
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("argument %d: %v is not an integer", i+1, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("argument %d: expected integer, got %T", i+1, args[i])
	}
}

// ArgString reads a string argument.
func ArgString(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("argument %d missing", i+1)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d: expected string, got %T", i+1, args[i])
	}
	return s, nil
}
