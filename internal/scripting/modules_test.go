package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func runScript(t *testing.T, luaSrc, hook string) lua.LValue {
	t.Helper()
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("modtest", writeTempLua(t, "test.lua", luaSrc)))
	ret, err := mgr.CallHook("modtest", hook, nil)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_AllLevels(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.Load("modtest", writeTempLua(t, "log.lua", `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`)))
	_, err := mgr.CallHook("modtest", "do_all_logs", nil)
	require.NoError(t, err)

	levels := map[string]bool{}
	for _, e := range logs.All() {
		levels[e.Level.String()] = true
	}
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		assert.True(t, levels[lvl], "expected %s log", lvl)
	}
	assert.Equal(t, 1, logs.FilterMessage("w").FilterField(zap.String("source", "lua")).Len())
}

func TestEngineRandom_Pick_InRange(t *testing.T) {
	ret := runScript(t, `
		function do_pick() return engine.random.pick(6) end
	`, "do_pick")
	n, ok := ret.(lua.LNumber)
	require.True(t, ok, "expected LNumber, got %T", ret)
	assert.GreaterOrEqual(t, int(n), 1)
	assert.LessOrEqual(t, int(n), 6)
}

func TestEngineRandom_Pick_EmptyIsNil(t *testing.T) {
	ret := runScript(t, `function do_pick() return engine.random.pick(0) end`, "do_pick")
	assert.Equal(t, lua.LNil, ret)
}

func TestEngineRandom_Choice(t *testing.T) {
	ret := runScript(t, `
		function do_choice() return engine.random.choice({"chirp", "squawk"}) end
	`, "do_choice")
	assert.Contains(t, []lua.LValue{lua.LString("chirp"), lua.LString("squawk")}, ret)

	ret = runScript(t, `function do_choice() return engine.random.choice({}) end`, "do_choice")
	assert.Equal(t, lua.LNil, ret)
}

func TestProperty_EngineRandom_PickAlwaysInRange(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("prop", writeTempLua(t, "p.lua", `
		function check(n)
			local i = engine.random.pick(n)
			return i >= 1 and i <= n
		end
	`)))
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 1000).Draw(rt, "n")
		ret, err := mgr.CallHook("prop", "check", numbers(float64(n)))
		if err != nil || ret != lua.LTrue {
			rt.Fatalf("pick(%d) out of range: %v %v", n, ret, err)
		}
	})
}
