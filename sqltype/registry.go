package sqltype

import (
	"fmt"
	"sync"
)

// registry maps semantic type names to erased converters. It backs DDL
// rendering and lets plugins expose converters by name.
var registry = struct {
	sync.RWMutex
	types map[string]Type
}{types: make(map[string]Type)}

// Register makes the converter available under the given semantic name.
// Registering an already-registered name is an error: converters are
// process-wide and silent replacement would change scan behavior at a
// distance.
func Register(name string, t Type) error {
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.types[name]; ok {
		return fmt.Errorf("sqltype: type %q already registered", name)
	}
	registry.types[name] = t
	return nil
}

// Lookup returns the converter registered under the given name.
func Lookup(name string) (Type, bool) {
	registry.RLock()
	defer registry.RUnlock()
	t, ok := registry.types[name]
	return t, ok
}

func init() {
	for name, t := range map[string]Type{
		"bool":    Bool().Erase(),
		"int":     Int().Erase(),
		"int64":   Int64().Erase(),
		"float64": Float64().Erase(),
		"string":  String().Erase(),
		"bytes":   Bytes().Erase(),
		"time":    Time().Erase(),
		"uuid":    UUID().Erase(),
	} {
		if err := Register(name, t); err != nil {
			panic(err)
		}
	}
}
