package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.log and engine.random tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	logTbl := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)

	random := L.NewTable()
	// engine.random.pick(n) returns a 1-based index in [1, n], or nil when n < 1.
	L.SetField(random, "pick", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		idx := m.roller.Pick("lua pick", n)
		if idx < 0 {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(idx + 1))
		return 1
	}))
	// engine.random.choice(list) returns a random element of a sequence table.
	L.SetField(random, "choice", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		idx := m.roller.Pick("lua choice", tbl.Len())
		if idx < 0 {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(tbl.RawGetInt(idx + 1))
		return 1
	}))
	L.SetField(engine, "random", random)
}
