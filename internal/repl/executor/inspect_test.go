package executor

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func TestRepr(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	require.NoError(t, L.DoString(`
seq = {1, 2, "three"}
rec = {b = 2, a = 1, ["not id"] = true}
mixed = {10, 20, x = "y"}
nested = {inner = {deeper = {1}}}
cyc = {}
cyc.self = cyc
`))

	tests := []struct {
		name     string
		global   string
		depth    int
		expected string
	}{
		{"sequence", "seq", 3, `{1, 2, "three"}`},
		{"record sorted", "rec", 3, `{["not id"] = true, a = 1, b = 2}`},
		{"mixed", "mixed", 3, `{10, 20, x = "y"}`},
		{"depth limit", "nested", 2, `{inner = {deeper = {...}}}`},
		{"cycle", "cyc", 5, `{self = {...}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Repr(L, L.GetGlobal(tt.global), tt.depth))
		})
	}

	assert.Equal(t, `"a\nb"`, Repr(L, lua.LString("a\nb"), 1))
	assert.Equal(t, "nil", Repr(L, lua.LNil, 1))
	assert.Equal(t, "false", Repr(L, lua.LFalse, 1))
}
