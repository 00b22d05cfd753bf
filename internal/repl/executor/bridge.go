package executor

import (
	"fmt"
	"reflect"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// goValueType names the metatable attached to Go values that stay opaque in Lua.
const goValueType = "embedsh.value"

// Bridge converts values between Go and Lua.
type Bridge struct {
	L        *lua.LState
	maxDepth int
}

// NewBridge creates a Bridge for L. Go values nested deeper than maxDepth
// stay opaque userdata instead of being expanded into tables.
func NewBridge(L *lua.LState, maxDepth int) *Bridge {
	b := &Bridge{L: L, maxDepth: maxDepth}
	mt := L.NewTypeMetatable(goValueType)
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		L.Push(lua.LString(fmt.Sprintf("%v", ud.Value)))
		return 1
	}))
	return b
}

// ToGoValue converts a Lua value to a Go value.
func (b *Bridge) ToGoValue(lv lua.LValue) interface{} {
	return b.toGoValueWithVisited(lv, make(map[*lua.LTable]bool))
}

func (b *Bridge) toGoValueWithVisited(lv lua.LValue, visited map[*lua.LTable]bool) interface{} {
	if lv == nil {
		return nil
	}

	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return b.tableToGoWithVisited(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

// tableToGoWithVisited converts a Lua table to a slice when its keys are
// 1..n and to a map otherwise.
func (b *Bridge) tableToGoWithVisited(t *lua.LTable, visited map[*lua.LTable]bool) interface{} {
	isArray := true
	maxN := 0
	count := 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if kn, ok := k.(lua.LNumber); ok {
			n := int(kn)
			if float64(n) == float64(kn) && n > 0 {
				if n > maxN {
					maxN = n
				}
				return
			}
		}
		isArray = false
	})

	if isArray && maxN > 0 && count == maxN {
		arr := make([]interface{}, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = b.toGoValueWithVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]interface{})
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = kv.String()
		default:
			key = k.String()
		}
		m[key] = b.toGoValueWithVisited(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value. Pointers already seen
// during one conversion map to the same table, so cyclic structures stay
// cyclic instead of recursing forever.
func (b *Bridge) ToLuaValue(v interface{}) lua.LValue {
	return b.toLua(reflect.ValueOf(v), 0, make(map[uintptr]lua.LValue))
}

func (b *Bridge) toLua(rv reflect.Value, depth int, seen map[uintptr]lua.LValue) lua.LValue {
	if !rv.IsValid() {
		return lua.LNil
	}
	if rv.CanInterface() {
		if lv, ok := rv.Interface().(lua.LValue); ok {
			return lv
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		return lua.LBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Func:
		if rv.IsNil() {
			return lua.LNil
		}
		return b.L.NewFunction(b.wrapFunc(rv))
	case reflect.Interface:
		if rv.IsNil() {
			return lua.LNil
		}
		return b.toLua(rv.Elem(), depth, seen)
	}

	if depth >= b.maxDepth {
		return b.opaque(rv)
	}

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return lua.LNil
		}
		if lv, ok := seen[rv.Pointer()]; ok {
			return lv
		}
		elem := rv.Elem()
		if elem.Kind() != reflect.Struct {
			return b.toLua(elem, depth+1, seen)
		}
		t := b.L.NewTable()
		seen[rv.Pointer()] = t
		b.fillStruct(t, elem, depth+1, seen)
		b.fillMethods(t, rv)
		return t

	case reflect.Slice:
		if rv.IsNil() {
			return lua.LNil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return lua.LString(rv.Bytes())
		}
		fallthrough
	case reflect.Array:
		t := b.L.CreateTable(rv.Len(), 0)
		for i := 0; i < rv.Len(); i++ {
			t.RawSetInt(i+1, b.toLua(rv.Index(i), depth+1, seen))
		}
		return t

	case reflect.Map:
		if rv.IsNil() {
			return lua.LNil
		}
		t := b.L.CreateTable(0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			t.RawSet(b.toLua(iter.Key(), depth+1, seen), b.toLua(iter.Value(), depth+1, seen))
		}
		return t

	case reflect.Struct:
		if exportedFields(rv.Type()) == 0 {
			return b.opaque(rv)
		}
		t := b.L.NewTable()
		b.fillStruct(t, rv, depth+1, seen)
		b.fillMethods(t, rv)
		return t

	default:
		return b.opaque(rv)
	}
}

// fillStruct sets the exported fields of rv on t under their Go names.
func (b *Bridge) fillStruct(t *lua.LTable, rv reflect.Value, depth int, seen map[uintptr]lua.LValue) {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		t.RawSetString(field.Name, b.toLua(rv.Field(i), depth, seen))
	}
}

// fillMethods exposes the exported methods of rv as functions. Fields win
// over methods with the same name.
func (b *Bridge) fillMethods(t *lua.LTable, rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		name := rt.Method(i).Name
		if t.RawGetString(name) != lua.LNil {
			continue
		}
		t.RawSetString(name, b.L.NewFunction(b.wrapMethod(rv.Method(i))))
	}
}

func exportedFields(rt reflect.Type) int {
	n := 0
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).IsExported() {
			n++
		}
	}
	return n
}

// opaque wraps rv as userdata that prints with %v.
func (b *Bridge) opaque(rv reflect.Value) lua.LValue {
	ud := b.L.NewUserData()
	if rv.CanInterface() {
		ud.Value = rv.Interface()
	}
	b.L.SetMetatable(ud, b.L.GetTypeMetatable(goValueType))
	return ud
}

// wrapMethod adapts a bound method value. Lua's colon syntax passes the
// receiver table as the first argument, which is dropped.
func (b *Bridge) wrapMethod(fn reflect.Value) lua.LGFunction {
	call := b.wrapFunc(fn)
	return func(L *lua.LState) int {
		if L.GetTop() > 0 && L.Get(1).Type() == lua.LTTable && L.GetTop() > fn.Type().NumIn() {
			L.Remove(1)
		}
		return call(L)
	}
}

// wrapFunc adapts a Go function of any signature. Arguments are converted
// to the parameter types; a trailing non-nil error result raises a Lua error.
func (b *Bridge) wrapFunc(fn reflect.Value) lua.LGFunction {
	ft := fn.Type()
	return func(L *lua.LState) int {
		nArgs := L.GetTop()
		numIn := ft.NumIn()
		if ft.IsVariadic() {
			if nArgs < numIn-1 {
				L.RaiseError("expected at least %d arguments, got %d", numIn-1, nArgs)
				return 0
			}
		} else if nArgs != numIn {
			L.RaiseError("expected %d arguments, got %d", numIn, nArgs)
			return 0
		}

		args := make([]reflect.Value, nArgs)
		for i := 0; i < nArgs; i++ {
			var pt reflect.Type
			if ft.IsVariadic() && i >= numIn-1 {
				pt = ft.In(numIn - 1).Elem()
			} else {
				pt = ft.In(i)
			}
			arg, err := convertArg(b.ToGoValue(L.Get(i+1)), pt)
			if err != nil {
				L.ArgError(i+1, err.Error())
				return 0
			}
			args[i] = arg
		}

		out := fn.Call(args)
		if n := len(out); n > 0 && ft.Out(n-1) == errorType {
			if err, _ := out[n-1].Interface().(error); err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			out = out[:n-1]
		}
		for _, o := range out {
			L.Push(b.ToLuaValue(o.Interface()))
		}
		return len(out)
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// convertArg converts a value produced by ToGoValue to type t.
func convertArg(v interface{}, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	switch t.Kind() {
	case reflect.String:
		if rv.Kind() != reflect.String {
			return reflect.Value{}, fmt.Errorf("expected string, got %s", rv.Type())
		}
	case reflect.Slice:
		items, ok := v.([]interface{})
		if !ok {
			break
		}
		out := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			elem, err := convertArg(item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	case reflect.Map:
		entries, ok := v.(map[string]interface{})
		if !ok || t.Key().Kind() != reflect.String {
			break
		}
		out := reflect.MakeMapWithSize(t, len(entries))
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			elem, err := convertArg(entries[k], t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), elem)
		}
		return out, nil
	}

	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", rv.Type(), t)
}
