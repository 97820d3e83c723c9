package ir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// RegKind names an architectural register bank. Each bank gets its own cell
// namespace; GPRs and vectors never alias the same alloca.
type RegKind int

const (
	// RegGPR is X0..X30 plus SP (index 31) and the zero register (index 32,
	// never actually allocated — reads/writes to it are special-cased by
	// callers before reaching the register file).
	RegGPR RegKind = iota
	// RegVector is V0..V31, always allocated at full 128-bit width; narrower
	// views are bitcasts of the 128-bit cell.
	RegVector
	// RegFlag is one of N, Z, C, V.
	RegFlag
)

// Flag names the four condition flags, used as the index into RegFlag.
type Flag int

const (
	FlagN Flag = iota
	FlagZ
	FlagC
	FlagV
)

func (f Flag) String() string {
	switch f {
	case FlagN:
		return "N"
	case FlagZ:
		return "Z"
	case FlagC:
		return "C"
	case FlagV:
		return "V"
	default:
		return "?"
	}
}

// registerFile lazily allocates one alloca per architectural register cell,
// the same way golint-fixer-exp/cmd/bin2ll allocates one alloca per x86
// register or status flag on first reference and caches it thereafter.
type registerFile struct {
	ec *EmissionContext

	gpr   [32]*ir.InstAlloca // X0..X30, X31=SP
	vec   [32]*ir.InstAlloca // V0..V31, always i128
	flags [4]*ir.InstAlloca
}

func newRegisterFile(ec *EmissionContext) *registerFile {
	return &registerFile{ec: ec}
}

// Reg returns the allocation cell for the given architectural register,
// allocating it on first use in the function's entry block.
func (ec *EmissionContext) Reg(kind RegKind, index int) value.Value {
	switch kind {
	case RegGPR:
		return ec.gprCell(index)
	case RegVector:
		return ec.vecCell(index)
	default:
		panic(fmt.Sprintf("ir: Reg called with non-register kind %d", kind))
	}
}

// FlagReg returns the allocation cell for one condition flag.
func (ec *EmissionContext) FlagReg(f Flag) value.Value {
	if ec.regs.flags[f] == nil {
		cell := ec.entry.NewAlloca(types.I1)
		cell.SetName("flag." + f.String())
		ec.regs.flags[f] = cell
	}
	return ec.regs.flags[f]
}

// LoadFlag reads the current value of one condition flag.
func (ec *EmissionContext) LoadFlag(f Flag) value.Value {
	return ec.cursor.NewLoad(ec.FlagReg(f))
}

func (ec *EmissionContext) gprCell(index int) *ir.InstAlloca {
	if index < 0 || index > 31 {
		panic(fmt.Sprintf("ir: GPR index %d out of range", index))
	}
	if ec.regs.gpr[index] == nil {
		cell := ec.entry.NewAlloca(types.I64)
		cell.SetName(gprCellName(index))
		ec.regs.gpr[index] = cell
	}
	return ec.regs.gpr[index]
}

func (ec *EmissionContext) vecCell(index int) *ir.InstAlloca {
	if index < 0 || index > 31 {
		panic(fmt.Sprintf("ir: vector index %d out of range", index))
	}
	if ec.regs.vec[index] == nil {
		cell := ec.entry.NewAlloca(types.NewInt(128))
		cell.SetName(fmt.Sprintf("v%d", index))
		ec.regs.vec[index] = cell
	}
	return ec.regs.vec[index]
}

func gprCellName(index int) string {
	if index == 31 {
		return "sp"
	}
	return fmt.Sprintf("x%d", index)
}

// ReadGPR loads the full 64-bit value of Xn, or the low 32 bits (an i32
// trunc of the cell) when w32 requests the W form.
func (ec *EmissionContext) ReadGPR(index int, w32 bool) value.Value {
	cell := ec.gprCell(index)
	v := ec.cursor.NewLoad(cell)
	if w32 {
		return ec.cursor.NewTrunc(v, types.I32)
	}
	return v
}

// WriteGPR stores val into Xn. A W-form write (w32=true) must zero-extend
// its 32-bit value to 64 bits before the store, per the architecture's
// "W-writes clear the upper 32 bits" rule (spec §4.4).
func (ec *EmissionContext) WriteGPR(index int, w32 bool, val value.Value) {
	cell := ec.gprCell(index)
	if w32 {
		val = ec.cursor.NewZExt(val, types.I64)
	}
	ec.cursor.NewStore(val, cell)
}

// ReadVec loads the full 128-bit cell for Vn, narrowing to ty's bit width
// first when ty is narrower than 128 bits (S/D/H-form scalar and sub-128-bit
// vector reads), since LLVM's bitcast requires matching bit widths and only
// reinterprets; the narrow lanes are AArch64's own low-bits-of-Vn aliasing,
// so a truncation is the correct narrowing, not just a cast necessity.
func (ec *EmissionContext) ReadVec(index int, ty types.Type) value.Value {
	cell := ec.vecCell(index)
	v := ec.cursor.NewLoad(cell)
	bits := typeBitWidth(ty)
	if bits < 128 {
		v = ec.cursor.NewTrunc(v, types.NewInt(int64(bits)))
	}
	return ec.cursor.NewBitCast(v, ty)
}

// WriteVec bitcasts val to i128 and stores it into Vn's cell, zero-extending
// narrower FP/vector results the way the architecture zeroes unused upper
// lanes on a SIMD&FP register write.
func (ec *EmissionContext) WriteVec(index int, val value.Value) {
	cell := ec.vecCell(index)
	bits := typeBitWidth(val.Type())
	var i128 value.Value
	switch {
	case bits == 128:
		i128 = ec.cursor.NewBitCast(val, types.NewInt(128))
	case bits < 128:
		asInt := ec.cursor.NewBitCast(val, types.NewInt(int64(bits)))
		i128 = ec.cursor.NewZExt(asInt, types.NewInt(128))
	default:
		panic(fmt.Sprintf("ir: WriteVec value wider than 128 bits (%d)", bits))
	}
	ec.cursor.NewStore(i128, cell)
}
