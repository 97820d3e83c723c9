package ir

import (
	"reflect"
	"testing"
)

// metadataCount reads back the length of v's Metadata field via reflection,
// mirroring attachMetadata's own field access, so the test stays agnostic
// to which concrete llir/llvm instruction/terminator type v happens to be.
func metadataCount(v any) int {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	f := rv.FieldByName("Metadata")
	if !f.IsValid() {
		return 0
	}
	return f.Len()
}

func TestTagTerminator(t *testing.T) {
	ec := NewEmissionContext("t")
	ec.Ret()

	ec.TagTerminator(ec.Cursor(), "asm.classic", "RET")

	if got := metadataCount(ec.Cursor().Term); got != 1 {
		t.Fatalf("terminator metadata count = %d, want 1", got)
	}
}

func TestTagEntry_UsesFirstInstruction(t *testing.T) {
	ec := NewEmissionContext("t")
	ec.WriteGPR(0, false, ec.IntConst(1, 64))
	ec.Ret()

	blk := ec.Cursor()
	ec.TagEntry(blk, "asm.aslp", "ADD")

	if len(blk.Insts) == 0 {
		t.Fatal("expected at least one instruction in block")
	}
	if got := metadataCount(blk.Insts[0]); got != 1 {
		t.Fatalf("first instruction metadata count = %d, want 1", got)
	}
}

func TestTagEntry_FallsBackToTerminatorWhenBlockEmpty(t *testing.T) {
	ec := NewEmissionContext("t")
	ec.Ret()

	blk := ec.Cursor()
	ec.TagEntry(blk, "asm.aslp", "RET")

	if got := metadataCount(blk.Term); got != 1 {
		t.Fatalf("terminator metadata count = %d, want 1", got)
	}
}
