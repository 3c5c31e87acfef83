// scriptfx.go - Lua-scripted plugin family
//
// The teacher's go.mod declares github.com/yuin/gopher-lua but no
// surviving teacher file exercises it. SPEC_FULL §DOMAIN STACK wires it in
// as a fourth, interpreted module family for the audio-FX and MIDI-FX ABIs
// (there is no scripted sound generator): a module whose directory holds
// "<name>.lua" instead of
// "<name>.so" is hosted by evaluating the script once at load time and
// calling its global functions per the same contract as the native ABIs.

package main

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
)

func luaPath(name string) string { return moduleDir(name) + "/" + name + ".lua" }

func luaScriptExists(name string) bool {
	_, err := os.Stat(luaPath(name))
	return err == nil
}

// luaScriptFX is a shared base for scripted audio-FX and MIDI-FX modules:
// both wrap a *lua.LState and call named globals.
type luaScriptFX struct {
	L    *lua.LState
	name string
}

func newLuaScriptFX(name string, caps HostCapabilities) (*luaScriptFX, error) {
	L := lua.NewState()
	if err := L.DoFile(luaPath(name)); err != nil {
		L.Close()
		return nil, fmt.Errorf("%w: %v", ErrModuleMissing, err)
	}
	L.SetGlobal("sample_rate", lua.LNumber(caps.SampleRate))
	L.SetGlobal("frames_per_block", lua.LNumber(caps.FramesPerBlock))
	return &luaScriptFX{L: L, name: name}, nil
}

func (s *luaScriptFX) callGlobal(fn string, args ...lua.LValue) ([]lua.LValue, error) {
	f := s.L.GetGlobal(fn)
	if f == lua.LNil {
		return nil, nil
	}
	if err := s.L.CallByParam(lua.P{Fn: f, NRet: lua.MultRet, Protect: true}, args...); err != nil {
		return nil, err
	}
	n := s.L.GetTop()
	out := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		out[i] = s.L.Get(i + 1)
	}
	s.L.SetTop(0)
	return out, nil
}

func (s *luaScriptFX) SetParam(key, val string) error {
	_, err := s.callGlobal("set_param", lua.LString(key), lua.LString(val))
	return err
}

func (s *luaScriptFX) GetParam(key string) (string, bool) {
	out, err := s.callGlobal("get_param", lua.LString(key))
	if err != nil || len(out) == 0 {
		return "", false
	}
	return out[0].String(), true
}

func (s *luaScriptFX) Close() { s.L.Close() }

// LuaAudioFX hosts a scripted audio-FX module: Lua's process_block(table)
// receives a Lua table of interleaved i16 samples and returns the
// processed table.
type LuaAudioFX struct{ *luaScriptFX }

func NewLuaAudioFX(name string, caps HostCapabilities) (*LuaAudioFX, error) {
	base, err := newLuaScriptFX(name, caps)
	if err != nil {
		return nil, err
	}
	return &LuaAudioFX{base}, nil
}

func (a *LuaAudioFX) APIVersion() int { return abiVersionAudioFX }

func (a *LuaAudioFX) ProcessBlock(buf []int16, frames int) {
	tbl := a.L.NewTable()
	for i, v := range buf {
		tbl.RawSetInt(i+1, lua.LNumber(v))
	}
	out, err := a.callGlobal("process_block", tbl, lua.LNumber(frames))
	if err != nil || len(out) == 0 {
		return
	}
	if rt, ok := out[0].(*lua.LTable); ok {
		rt.ForEach(func(k, v lua.LValue) {
			idx := int(k.(lua.LNumber)) - 1
			if idx >= 0 && idx < len(buf) {
				buf[idx] = int16(lua.LVAsNumber(v))
			}
		})
	}
}

// LuaMIDIFX hosts a scripted MIDI-FX module.
type LuaMIDIFX struct{ *luaScriptFX }

func NewLuaMIDIFX(name string, caps HostCapabilities) (*LuaMIDIFX, error) {
	base, err := newLuaScriptFX(name, caps)
	if err != nil {
		return nil, err
	}
	return &LuaMIDIFX{base}, nil
}

func (m *LuaMIDIFX) APIVersion() int { return abiVersionMIDIFX }

func msgToLua(L *lua.LState, msg Msg) *lua.LTable {
	t := L.NewTable()
	t.RawSetInt(1, lua.LNumber(msg.Status))
	t.RawSetInt(2, lua.LNumber(msg.Data1))
	t.RawSetInt(3, lua.LNumber(msg.Data2))
	return t
}

func luaToMsgs(v lua.LValue) []Msg {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	var out []Msg
	tbl.ForEach(func(_, entry lua.LValue) {
		et, ok := entry.(*lua.LTable)
		if !ok || len(out) >= maxMIDIFanout {
			return
		}
		out = append(out, Msg{
			Status: byte(lua.LVAsNumber(et.RawGetInt(1))),
			Data1:  byte(lua.LVAsNumber(et.RawGetInt(2))),
			Data2:  byte(lua.LVAsNumber(et.RawGetInt(3))),
		})
	})
	return clampFanout(out)
}

func (m *LuaMIDIFX) ProcessMIDI(in Msg) []Msg {
	out, err := m.callGlobal("process_midi", msgToLua(m.L, in))
	if err != nil || len(out) == 0 {
		return nil
	}
	return luaToMsgs(out[0])
}

func (m *LuaMIDIFX) Tick(frames, sampleRate int) []Msg {
	out, err := m.callGlobal("tick", lua.LNumber(frames), lua.LNumber(sampleRate))
	if err != nil || len(out) == 0 {
		return nil
	}
	return luaToMsgs(out[0])
}
