package executor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// maxReprItems bounds how many table entries Repr prints before eliding.
const maxReprItems = 50

// Repr renders a Lua value the way the out prompt shows it: strings are
// quoted, sequences print as {1, 2} and other tables as {key = value}.
// Nested tables below depth levels and repeated tables print as {...}.
func Repr(L *lua.LState, lv lua.LValue, depth int) string {
	var b strings.Builder
	repr(&b, L, lv, depth, make(map[*lua.LTable]bool))
	return b.String()
}

func repr(b *strings.Builder, L *lua.LState, lv lua.LValue, depth int, active map[*lua.LTable]bool) {
	switch v := lv.(type) {
	case lua.LString:
		b.WriteString(strconv.Quote(string(v)))
	case *lua.LTable:
		if depth <= 0 || active[v] {
			b.WriteString("{...}")
			return
		}
		if L != nil && hasMetamethod(L, v, "__tostring") {
			b.WriteString(L.ToStringMeta(v).String())
			return
		}
		active[v] = true
		reprTable(b, L, v, depth, active)
		delete(active, v)
	case *lua.LUserData:
		b.WriteString(fmt.Sprintf("%v", v.Value))
	default:
		b.WriteString(lv.String())
	}
}

func hasMetamethod(L *lua.LState, t *lua.LTable, name string) bool {
	mt, ok := L.GetMetatable(t).(*lua.LTable)
	return ok && mt.RawGetString(name) != lua.LNil
}

func reprTable(b *strings.Builder, L *lua.LState, t *lua.LTable, depth int, active map[*lua.LTable]bool) {
	n := t.Len()
	type entry struct {
		key   string
		value lua.LValue
	}
	var rest []entry
	t.ForEach(func(k, v lua.LValue) {
		if kn, ok := k.(lua.LNumber); ok {
			if i := int(kn); float64(i) == float64(kn) && i >= 1 && i <= n {
				return
			}
		}
		var key string
		if ks, ok := k.(lua.LString); ok && isIdentifier(string(ks)) {
			key = string(ks)
		} else {
			var kb strings.Builder
			repr(&kb, L, k, 1, active)
			key = "[" + kb.String() + "]"
		}
		rest = append(rest, entry{key: key, value: v})
	})
	sort.Slice(rest, func(i, j int) bool { return rest[i].key < rest[j].key })

	b.WriteString("{")
	written := 0
	sep := func() {
		if written > 0 {
			b.WriteString(", ")
		}
		written++
	}
	for i := 1; i <= n; i++ {
		if written >= maxReprItems {
			b.WriteString(", ...}")
			return
		}
		sep()
		repr(b, L, t.RawGetInt(i), depth-1, active)
	}
	for _, e := range rest {
		if written >= maxReprItems {
			b.WriteString(", ...}")
			return
		}
		sep()
		b.WriteString(e.key)
		b.WriteString(" = ")
		repr(b, L, e.value, depth-1, active)
	}
	b.WriteString("}")
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
