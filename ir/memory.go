package ir

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Load reads ty from ptr. Sign-extension is never implicit: callers widen
// the result themselves via SExt/ZExt when the source architecture's load
// form demands it (LDRSB/LDRSH/LDRSW).
func (ec *EmissionContext) Load(ty types.Type, ptr value.Value) value.Value {
	return ec.cursor.NewLoad(ptr)
}

// Store writes val to ptr.
func (ec *EmissionContext) Store(val, ptr value.Value) {
	ec.cursor.NewStore(val, ptr)
}

// LoadWithOffset computes base+off (in bytes) and loads a size-bit value
// from the resulting address, used by the classic memory routines once an
// addressing mode has already resolved to a (base, offset) pair, and by the
// structured lowerer's Mem.read after address-expression recovery (spec
// §4.3.1).
func (ec *EmissionContext) LoadWithOffset(base value.Value, off int64, size int) value.Value {
	addr := ec.computeAddr(base, off, size)
	return ec.cursor.NewLoad(addr)
}

// StoreWithOffset is LoadWithOffset's write counterpart, used by the classic
// memory routines and by the structured lowerer's Mem.set.
func (ec *EmissionContext) StoreWithOffset(base value.Value, off int64, size int, val value.Value) {
	addr := ec.computeAddr(base, off, size)
	ec.cursor.NewStore(val, addr)
}

// computeAddr casts base to a pointer-to-i8 and applies a byte offset via a
// GEP over i8, the portable way to express "add variable byte offset"
// regardless of the pointee type LLVM currently tracks for base. base is an
// architectural address held in an integer register cell, not an LLVM
// pointer value, so the cast to i8* is an inttoptr, not a bitcast (LLVM has
// no int-to-pointer bitcast); a base that already carries pointer type
// (recovered address expressions can, via RecoverAddr's isLoad branch) is
// bitcast instead, since LLVM also disallows ptr-to-ptr inttoptr.
func (ec *EmissionContext) computeAddr(base value.Value, off int64, size int) value.Value {
	var i8ptr value.Value
	if _, isPtr := base.Type().(*types.PointerType); isPtr {
		i8ptr = ec.cursor.NewBitCast(base, types.NewPointer(types.I8))
	} else {
		i8ptr = ec.cursor.NewIntToPtr(base, types.NewPointer(types.I8))
	}
	offset := constant.NewInt(off, types.I64)
	byteAddr := ec.cursor.NewGetElementPtr(types.I8, i8ptr, offset)
	return ec.cursor.NewBitCast(byteAddr, types.NewPointer(types.NewInt(int64(size))))
}

// RecoverAddr implements spec §4.3.1's address-expression recovery: undo
// the last `add` that built a symbolic address into a (base, offset) pair,
// or treat a bare load as the base with a zero offset. This is the only
// place the lowerer inspects a previously-emitted IR node rather than
// building new IR forward.
//
// addExtractor receives the add instruction's two operands when addr was
// built by an add; it is supplied by the caller (package semlower) because
// only the lowerer's expression cache knows which emitted value corresponds
// to which emitted instruction.
func RecoverAddr(addr value.Value, isAdd func(value.Value) (lhs, rhs value.Value, ok bool), isLoad func(value.Value) bool) (base value.Value, offset int64, ok bool) {
	if lhs, rhs, yes := isAdd(addr); yes {
		if c, isConst := rhs.(*constant.Int); isConst {
			return lhs, c.X.Int64(), true
		}
		return lhs, 0, true
	}
	if isLoad(addr) {
		return addr, 0, true
	}
	return nil, 0, false
}
