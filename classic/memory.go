package classic

import (
	"github.com/llir/llvm/ir/value"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func init() {
	register([]instr.Op{instr.OpLDR, instr.OpLDUR}, lowerLoad(64))
	register([]instr.Op{instr.OpLDRB}, lowerLoad(8))
	register([]instr.Op{instr.OpLDRH}, lowerLoad(16))
	register([]instr.Op{instr.OpLDRSB}, lowerLoadSigned(8))
	register([]instr.Op{instr.OpLDRSH}, lowerLoadSigned(16))
	register([]instr.Op{instr.OpLDRSW}, lowerLoadSigned(32))
	register([]instr.Op{instr.OpSTR, instr.OpSTUR}, lowerStore(64))
	register([]instr.Op{instr.OpSTRB}, lowerStore(8))
	register([]instr.Op{instr.OpSTRH}, lowerStore(16))
	register([]instr.Op{instr.OpLDP}, lowerLoadPair)
	register([]instr.Op{instr.OpSTP}, lowerStorePair)
	register([]instr.Op{instr.OpMRS, instr.OpMSR}, lowerSysReg)
}

// memAddr reads the base-register operand and resolves the byte offset,
// covering the unsigned-offset/unscaled/register-offset addressing forms:
// operand baseIdx is the base register (1 for single loads/stores, 2 for
// pairs), and operand baseIdx+1 (when present) is either an immediate byte
// offset or an offset register.
func memAddr(ec *ir.EmissionContext, in instr.Instruction, baseIdx int) (base value.Value, offset int64) {
	baseOp := in.Operands[baseIdx]
	base = ec.ReadGPR(baseOp.Reg.Index, false)
	if len(in.Operands) <= baseIdx+1 {
		return base, 0
	}
	offOp := in.Operands[baseIdx+1]
	if offOp.Kind == instr.OperandImmediate {
		return base, offOp.Imm
	}
	// Register-offset form: fold the offset register into the base pointer
	// via an extra add, then address at zero further offset.
	offReg := ec.ReadGPR(offOp.Reg.Index, offOp.Reg.Width != instr.X)
	offExt := offReg
	if offOp.Reg.Width != instr.X {
		offExt = ec.ZExt(offReg, ec.IntTy(64))
	}
	combined := ec.Add(base, offExt)
	return combined, 0
}

// destWidth reports the destination GPR's declared width for a scalar
// memory instruction, used to pick the W or X form of the register access
// and whether a narrower-than-register load or store is extended or
// truncated.
func destWidth(in instr.Instruction) int {
	if in.Operands[0].Reg.Width == instr.X {
		return 64
	}
	return 32
}

func lowerLoad(size int) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		base, off := memAddr(ec, in, 1)
		loaded := ec.LoadWithOffset(base, off, size)
		width := destWidth(in)
		result := loaded
		if size < width {
			result = ec.ZExt(loaded, ec.IntTy(width))
		}
		ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
		return nil
	}
}

func lowerLoadSigned(size int) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		base, off := memAddr(ec, in, 1)
		loaded := ec.LoadWithOffset(base, off, size)
		width := destWidth(in)
		result := ec.SExt(loaded, ec.IntTy(width))
		ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
		return nil
	}
}

func lowerStore(size int) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		base, off := memAddr(ec, in, 1)
		width := destWidth(in)
		val := ec.ReadGPR(in.Operands[0].Reg.Index, width == 32)
		if size < width {
			val = ec.Trunc(val, ec.IntTy(size))
		}
		ec.StoreWithOffset(base, off, size, val)
		return nil
	}
}

// lowerLoadPair handles LDP: two same-width registers loaded from
// consecutive offsets (base+off, base+off+elemSize).
func lowerLoadPair(ec *ir.EmissionContext, in instr.Instruction) error {
	width := 64
	if in.Operands[0].Reg.Width == instr.W {
		width = 32
	}
	elemBytes := int64(width / 8)
	base, off := memAddr(ec, in, 2)

	v0 := ec.LoadWithOffset(base, off, width)
	v1 := ec.LoadWithOffset(base, off+elemBytes, width)
	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, v0)
	ec.WriteGPR(in.Operands[1].Reg.Index, width == 32, v1)
	return nil
}

func lowerStorePair(ec *ir.EmissionContext, in instr.Instruction) error {
	width := 64
	if in.Operands[0].Reg.Width == instr.W {
		width = 32
	}
	elemBytes := int64(width / 8)
	base, off := memAddr(ec, in, 2)

	v0 := ec.ReadGPR(in.Operands[0].Reg.Index, width == 32)
	v1 := ec.ReadGPR(in.Operands[1].Reg.Index, width == 32)
	ec.StoreWithOffset(base, off, width, v0)
	ec.StoreWithOffset(base, off+elemBytes, width, v1)
	return nil
}

// lowerSysReg handles MRS/MSR against a small set of modeled system
// registers (currently NZCV, packed from/to the flag cells); any other
// system register reads as zero and discards writes, since the validator's
// scope is data-flow through GPRs/vectors and the flags.
func lowerSysReg(ec *ir.EmissionContext, in instr.Instruction) error {
	isNZCV := in.Operands[1].Symbol == "NZCV"
	if in.Op == instr.OpMRS {
		var result value.Value
		if isNZCV {
			result = packNZCV(ec)
		} else {
			result = ec.IntConst(0, 64)
		}
		ec.WriteGPR(in.Operands[0].Reg.Index, false, result)
		return nil
	}
	if in.Operands[0].Symbol == "NZCV" {
		unpackNZCV(ec, ec.ReadGPR(in.Operands[1].Reg.Index, false))
	}
	return nil
}

func packNZCV(ec *ir.EmissionContext) value.Value {
	n := ec.ZExt(ec.LoadFlag(ir.FlagN), ec.IntTy(64))
	z := ec.ZExt(ec.LoadFlag(ir.FlagZ), ec.IntTy(64))
	c := ec.ZExt(ec.LoadFlag(ir.FlagC), ec.IntTy(64))
	v := ec.ZExt(ec.LoadFlag(ir.FlagV), ec.IntTy(64))
	result := ec.RawShl(n, ec.IntConst(31, 64))
	result = ec.Or(result, ec.RawShl(z, ec.IntConst(30, 64)))
	result = ec.Or(result, ec.RawShl(c, ec.IntConst(29, 64)))
	result = ec.Or(result, ec.RawShl(v, ec.IntConst(28, 64)))
	return result
}

func unpackNZCV(ec *ir.EmissionContext, packed value.Value) {
	bit := func(pos int64) value.Value {
		shifted := ec.RawLShr(packed, ec.IntConst(pos, 64))
		return ec.Trunc(ec.And(shifted, ec.IntConst(1, 64)), ec.IntTy(1))
	}
	ec.Store(bit(31), ec.FlagReg(ir.FlagN))
	ec.Store(bit(30), ec.FlagReg(ir.FlagZ))
	ec.Store(bit(29), ec.FlagReg(ir.FlagC))
	ec.Store(bit(28), ec.FlagReg(ir.FlagV))
}
