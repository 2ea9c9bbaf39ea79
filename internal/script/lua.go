// Package script runs a filter's optional sandboxed script hook as the
// final pass over already-filtered output.
package script

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ErrScriptReturn is wrapped around a script returning something other than
// a string or nil.
var ErrScriptReturn = errors.New("script: must return a string or nil")

// Host runs script source against a pipeline's output, exit code, and argv.
// A nil return replaces nothing (passthrough); a non-nil string replaces
// the output outright.
type Host interface {
	Run(source string, output string, exitCode int, args []string) (*string, error)
}

// LuaHost runs scripts in a fresh *lua.LState per call, opening only the
// base, string, table, and math libraries -- never os or io -- so a script
// cannot read or write the filesystem, spawn a process, or reach the
// network. This mirrors the sandbox original_source/.../filter/lua.rs
// relies on by simply never linking those host functions into the VM.
type LuaHost struct{}

var _ Host = LuaHost{}

func (LuaHost) Run(source string, output string, exitCode int, args []string) (*string, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSandboxedLibs(L)

	L.SetGlobal("output", lua.LString(output))
	L.SetGlobal("exit_code", lua.LNumber(exitCode))

	argsTable := L.NewTable()
	for i, a := range args {
		argsTable.RawSetInt(i+1, lua.LString(a))
	}
	L.SetGlobal("args", argsTable)

	fn, err := L.LoadString(source)
	if err != nil {
		return nil, fmt.Errorf("script: parse: %w", err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("script: execution: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	switch v := ret.(type) {
	case lua.LString:
		s := string(v)
		return &s, nil
	case *lua.LNilType:
		return nil, nil
	default:
		if ret == lua.LNil {
			return nil, nil
		}
		return nil, fmt.Errorf("%w, got %s", ErrScriptReturn, ret.Type().String())
	}
}

// openSandboxedLibs opens only the libraries that have no filesystem,
// process, or network surface. os/io/package/coroutine are deliberately
// never linked. The base library is opened for its control-flow and type
// builtins (pcall, ipairs, tostring, ...), but dofile/loadfile/require/
// loadstring -- the base-lib functions that read from the host filesystem --
// are stripped immediately after, so base never becomes a filesystem escape.
func openSandboxedLibs(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	for _, name := range []string{"dofile", "loadfile", "require", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}
