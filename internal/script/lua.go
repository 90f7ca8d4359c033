package script

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"

	"gridhold/server/internal/telemetry"
)

var _ Host = (*LuaHost)(nil)

// LuaHost runs *.lua scripts in one shared interpreter.
type LuaHost struct {
	mu      sync.Mutex
	state   *lua.State
	logger  telemetry.Logger
	loaded  []string
	skipped []string
}

// NewLuaHost returns a host with the standard libraries opened.
func NewLuaHost(logger telemetry.Logger) *LuaHost {
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}
	state := lua.NewState()
	lua.OpenLibraries(state)
	return &LuaHost{state: state, logger: logger}
}

// LoadAll runs every *.lua file under dir, recursively, in path order. A
// file that fails to load is logged and skipped; only an unreadable
// directory is an error.
func (h *LuaHost) LoadAll(dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".lua") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan scripts %s: %w", dir, err)
	}
	sort.Strings(files)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, path := range files {
		if err := lua.DoFile(h.state, path); err != nil {
			h.state.SetTop(0)
			h.logger.Printf("script %s skipped: %v", path, err)
			h.skipped = append(h.skipped, path)
			continue
		}
		h.loaded = append(h.loaded, path)
	}
	return nil
}

// Loaded returns the files loaded successfully so far.
func (h *LuaHost) Loaded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.loaded...)
}

// Skipped returns the files that failed to load.
func (h *LuaHost) Skipped() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.skipped...)
}

// Invoke calls the global function name with args and discards its
// results.
func (h *LuaHost) Invoke(name string, args ...any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.Global(name)
	if !h.state.IsFunction(-1) {
		h.state.Pop(1)
		return fmt.Errorf("%w: %s", ErrNoSuchFunction, name)
	}
	for i, arg := range args {
		if err := push(h.state, arg); err != nil {
			h.state.SetTop(0)
			return fmt.Errorf("invoke %s: argument %d: %w", name, i+1, err)
		}
	}
	if err := h.state.ProtectedCall(len(args), 0, 0); err != nil {
		h.state.SetTop(0)
		return fmt.Errorf("invoke %s: %w", name, err)
	}
	return nil
}

// Register exposes fn to scripts as the global name. A returned error is
// raised as a Lua error in the calling script.
func (h *LuaHost) Register(name string, fn Func) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Register(name, func(l *lua.State) int {
		args := make([]any, l.Top())
		for i := range args {
			args[i] = value(l, i+1)
		}
		results, err := fn(args)
		if err != nil {
			lua.Errorf(l, "%s: %s", name, err.Error())
			return 0
		}
		for _, r := range results {
			if err := push(l, r); err != nil {
				lua.Errorf(l, "%s: result: %s", name, err.Error())
				return 0
			}
		}
		return len(results)
	})
}

// Close releases the interpreter.
func (h *LuaHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.SetTop(0)
	return nil
}

func push(l *lua.State, v any) error {
	switch v := v.(type) {
	case nil:
		l.PushNil()
	case int:
		l.PushInteger(v)
	case int32:
		l.PushInteger(int(v))
	case int64:
		l.PushInteger(int(v))
	case float64:
		l.PushNumber(v)
	case string:
		l.PushString(v)
	case bool:
		l.PushBoolean(v)
	default:
		return fmt.Errorf("unsupported type %T", v)
	}
	return nil
}

func value(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeNumber:
		if n, ok := l.ToInteger(index); ok {
			if f, _ := l.ToNumber(index); f == float64(n) {
				return int64(n)
			}
		}
		f, _ := l.ToNumber(index)
		return f
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	default:
		return nil
	}
}
