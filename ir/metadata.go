package ir

import (
	"reflect"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"
)

// TagTerminator attaches name=text to b's terminator instruction, the
// classic path's "asm.classic=<mnemonic>" tag (spec §6's metadata tagging
// convention: every classically-lowered block's terminator carries one).
func (ec *EmissionContext) TagTerminator(b *ir.Block, name, text string) {
	attachMetadata(b.Term, name, text)
}

// TagEntry attaches name=text to b's first non-terminator instruction, or
// to the terminator if b has none, the structured path's
// "asm.aslp=<mnemonic>" tag. Which concrete instruction kind ends up first
// depends entirely on what the semantics text happened to lower to, so
// this goes through attachMetadata's reflection-based field access rather
// than an exhaustive type switch over every llir/llvm instruction kind.
func (ec *EmissionContext) TagEntry(b *ir.Block, name, text string) {
	if len(b.Insts) > 0 {
		attachMetadata(b.Insts[0], name, text)
		return
	}
	attachMetadata(b.Term, name, text)
}

// attachMetadata appends a single-string-node metadata attachment named
// name to v, the way github.com/decomp/exp's bin2ll tags a lifted function
// with its source address via a map-keyed Metadata field. This module's
// llir/llvm version carries that same attachment on a `Metadata
// []*metadata.Attachment` field of every concrete instruction/terminator
// struct, but there is no shared interface exposing it across the dozens
// of concrete kinds this package's helpers can emit — a type switch over
// all of them would have to grow in lockstep with ir/helpers.go forever.
// Reflection on the one common field name is the one place this package
// reaches past its usual "every IR node goes through a typed helper"
// discipline, and only for this diagnostic side channel.
func attachMetadata(v any, name, text string) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}
	f := rv.FieldByName("Metadata")
	if !f.IsValid() || !f.CanSet() || f.Kind() != reflect.Slice {
		return
	}
	attachment := &metadata.Attachment{
		Name: name,
		Node: &metadata.Tuple{Nodes: []metadata.Node{&metadata.String{Value: text}}},
	}
	f.Set(reflect.Append(f, reflect.ValueOf(attachment)))
}
