package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mythic/internal/game/dice"
)

// GlobalKey names the fallback VM consulted when a key has no VM of its own.
const GlobalKey = "global"

// ErrNoVM is returned by CallHook when neither the key nor the global fallback
// has a loaded VM.
var ErrNoVM = errors.New("scripting: no VM loaded")

type vm struct {
	mu sync.Mutex
	L  *lua.LState
}

// Manager owns one sandboxed LState per script key and exposes hook dispatch.
//
// An LState is single-threaded, so each VM carries its own mutex: calls to the
// same key are serialized, calls to different keys run concurrently.
type Manager struct {
	mu        sync.RWMutex
	vms       map[string]*vm
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger
}

// NewManager creates a Manager whose hook calls may each run at most instLimit
// opcodes (0 uses DefaultInstructionLimit).
//
// Precondition: roller and logger must be non-nil; panics otherwise.
func NewManager(roller *dice.Roller, logger *zap.Logger, instLimit int) *Manager {
	if roller == nil {
		panic("scripting: NewManager called with nil roller")
	}
	if logger == nil {
		panic("scripting: NewManager called with nil logger")
	}
	return &Manager{
		vms:       make(map[string]*vm),
		instLimit: instLimit,
		roller:    roller,
		logger:    logger,
	}
}

// Load creates a sandboxed VM for key, registers the engine.* modules, then
// executes every *.lua file in dir in lexicographic order. A previously
// loaded VM for key is replaced.
//
// Precondition: key must be non-empty; dir must be a readable directory.
func (m *Manager) Load(key, dir string) error {
	L := NewSandboxedState()
	m.RegisterModules(L)

	entries, err := os.ReadDir(dir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", dir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		release := LimitInstructions(L, m.instLimit)
		err := L.DoFile(path)
		release()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = &vm{L: L}
	m.mu.Unlock()
	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	return nil
}

// LoadTree loads one VM per immediate subdirectory of root, keyed by the
// subdirectory name. A missing root is not an error.
//
// Postcondition: returns the number of VMs loaded.
func (m *Manager) LoadTree(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("scripting: reading script root %q: %w", root, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := m.Load(e.Name(), filepath.Join(root, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (m *Manager) lookup(key string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vms[key]; ok {
		return v
	}
	return m.vms[GlobalKey]
}

// CallHook calls the global function hook in key's VM (falling back to the
// global VM) with the arguments produced by args, and returns its first
// result. An undefined hook yields (LNil, nil).
//
// args runs while the VM is held, so it may allocate tables on L.
func (m *Manager) CallHook(key, hook string, args func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	v := m.lookup(key)
	if v == nil {
		return lua.LNil, ErrNoVM
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, nil
	}
	var in []lua.LValue
	if args != nil {
		in = args(v.L)
	}

	release := LimitInstructions(v.L, m.instLimit)
	defer release()
	if err := v.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, in...); err != nil {
		return lua.LNil, fmt.Errorf("scripting: %s.%s: %w", key, hook, err)
	}
	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Reaction calls on_<action> in key's VM with a read-only copy of attrs and
// returns the string it yields. Missing VMs, missing hooks, non-string results
// and Lua errors all yield "", the last logged at Warn.
func (m *Manager) Reaction(key, action string, attrs map[string]any) string {
	hook := "on_" + action
	ret, err := m.CallHook(key, hook, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{toTable(L, attrs)}
	})
	if err != nil {
		if !errors.Is(err, ErrNoVM) {
			m.logger.Warn("scripting: reaction failed",
				zap.String("key", key),
				zap.String("hook", hook),
				zap.Error(err),
			)
		}
		return ""
	}
	if s, ok := ret.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// Keys returns the loaded VM keys in sorted order.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.vms))
	for k := range m.vms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close releases every VM. The Manager remains usable; calls find no VMs.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
	}
}

func toTable(L *lua.LState, attrs map[string]any) *lua.LTable {
	t := L.NewTable()
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			t.RawSetString(k, lua.LString(val))
		case int:
			t.RawSetString(k, lua.LNumber(val))
		case int64:
			t.RawSetString(k, lua.LNumber(val))
		case bool:
			t.RawSetString(k, lua.LBool(val))
		}
	}
	return t
}
