package inspector

import (
	"reflect"

	"github.com/llir/llvm/ir/metadata"
)

// lookupMetadata reads back a tag ir.TagEntry/ir.TagTerminator attached to
// v, by name. Mirrors those functions' reflective field access (package ir
// has no exported reader, since nothing inside that package needs to read
// its own tags back) — the same heterogeneous-concrete-type problem
// applies on the read side.
func lookupMetadata(v any, name string) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", false
	}
	f := rv.FieldByName("Metadata")
	if !f.IsValid() || f.Kind() != reflect.Slice {
		return "", false
	}
	for i := 0; i < f.Len(); i++ {
		att, ok := f.Index(i).Interface().(*metadata.Attachment)
		if !ok || att.Name != name {
			continue
		}
		tuple, ok := att.Node.(*metadata.Tuple)
		if !ok || len(tuple.Nodes) == 0 {
			continue
		}
		if s, ok := tuple.Nodes[0].(*metadata.String); ok {
			return s.Value, true
		}
	}
	return "", false
}
