// Package ir wraps github.com/llir/llvm's IR builders behind the fixed
// helper surface the lowerers need: constants, casts, arithmetic, vector
// ops, control flow, and the machine-state register cells. Nothing outside
// this package constructs *ir.Instruction values directly — every emitted
// instruction goes through an EmissionContext method, so the single-cursor,
// never-reorder invariant has exactly one enforcement point.
package ir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// EmissionContext owns one growing IR function: the block cursor, the
// machine-state register cells, and the name counter. It is never shared
// between goroutines and never outlives one Dispatcher.Lift call (spec §5).
type EmissionContext struct {
	Module *ir.Module
	Func   *ir.Function

	entry  *ir.Block
	cursor *ir.Block

	regs  *registerFile
	names *NameCounter

	intrinsics map[string]*ir.Func

	// blocksByAddr maps a source-binary instruction address to the block
	// the dispatcher created for it, so classic branch routines can resolve
	// a branch target to a destination block (the dispatcher populates
	// this in a first pass over all instructions before lowering any of
	// them, since a forward branch's target block must already exist when
	// the branch is lowered).
	blocksByAddr map[uint64]*ir.Block
}

// NewEmissionContext allocates a fresh function named name inside a fresh
// module and seeds its machine-state register cells. The entry block is the
// initial cursor.
func NewEmissionContext(name string) *EmissionContext {
	m := ir.NewModule()
	f := m.NewFunc(name, types.Void)
	entry := f.NewBlock("entry")

	ec := &EmissionContext{
		Module:     m,
		Func:       f,
		entry:      entry,
		cursor:     entry,
		names:        newNameCounter(),
		intrinsics:   make(map[string]*ir.Func),
		blocksByAddr: make(map[uint64]*ir.Block),
	}
	ec.regs = newRegisterFile(ec)
	return ec
}

// RegisterBlockAddr records that addr's instruction begins at block b.
func (ec *EmissionContext) RegisterBlockAddr(addr uint64, b *ir.Block) {
	ec.blocksByAddr[addr] = b
}

// BlockAtAddr resolves a branch target address to its destination block.
func (ec *EmissionContext) BlockAtAddr(addr uint64) (*ir.Block, bool) {
	b, ok := ec.blocksByAddr[addr]
	return b, ok
}

// Cursor returns the block new instructions are appended to.
func (ec *EmissionContext) Cursor() *ir.Block { return ec.cursor }

// SetCursor moves the insertion point. Callers use this after creating a new
// block (branch/join points, structured statements) so subsequent helper
// calls append there instead.
func (ec *EmissionContext) SetCursor(b *ir.Block) { ec.cursor = b }

// NewBlock appends a fresh block to the function with a minted name and
// returns it without moving the cursor; callers that want it current must
// SetCursor explicitly.
func (ec *EmissionContext) NewBlock(hint string) *ir.Block {
	return ec.Func.NewBlock(ec.names.Block(hint))
}

// Terminated reports whether the cursor's last instruction is already a
// terminator, matching the "cursor always points at a block that is either
// empty or whose last instruction is not yet a terminator" invariant: a true
// result here would be a bug in the caller.
func (ec *EmissionContext) Terminated() bool {
	return ec.cursor.Term != nil
}

// NameCounter mints monotonically increasing names for IR entities the way
// the teacher's vm package counts executed cycles: a single counter per
// entity kind, queried and incremented together.
type NameCounter struct {
	blocks int
	values int
}

func newNameCounter() *NameCounter { return &NameCounter{} }

// Block mints the next block name, "<hint>.<n>" if hint is non-empty,
// "blk<n>" otherwise.
func (c *NameCounter) Block(hint string) string {
	n := c.blocks
	c.blocks++
	if hint != "" {
		return fmt.Sprintf("%s.%d", hint, n)
	}
	return fmt.Sprintf("blk%d", n)
}

// Value mints the next SSA value name, "inst<n>".
func (c *NameCounter) Value() string {
	n := c.values
	c.values++
	return fmt.Sprintf("inst%d", n)
}
