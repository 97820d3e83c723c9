package classic

import (
	goir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func init() {
	register([]instr.Op{instr.OpMADD, instr.OpMSUB}, lowerMaddMsub)
	register([]instr.Op{instr.OpSMADDL, instr.OpUMADDL, instr.OpSMSUBL, instr.OpUMSUBL}, lowerMulLong)
	register([]instr.Op{instr.OpSMULH, instr.OpUMULH}, lowerMulHigh)
	register([]instr.Op{instr.OpSDIV, instr.OpUDIV}, lowerDivide)
}

func lowerMaddMsub(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	a := ec.ReadGPR(in.Operands[1].Reg.Index, width == 32)
	b := ec.ReadGPR(in.Operands[2].Reg.Index, width == 32)
	acc := ec.ReadGPR(in.Operands[3].Reg.Index, width == 32)

	product := ec.Mul(a, b)
	var result value.Value
	if in.Op == instr.OpMADD {
		result = ec.Add(acc, product)
	} else {
		result = ec.Sub(acc, product)
	}

	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}

// lowerMulLong handles SMADDL/UMADDL/SMSUBL/UMSUBL: a 32x32->64 widening
// multiply accumulated into (or subtracted from) a 64-bit register.
func lowerMulLong(ec *ir.EmissionContext, in instr.Instruction) error {
	a32 := ec.ReadGPR(in.Operands[1].Reg.Index, true)
	b32 := ec.ReadGPR(in.Operands[2].Reg.Index, true)
	acc := ec.ReadGPR(in.Operands[3].Reg.Index, false)

	signed := in.Op == instr.OpSMADDL || in.Op == instr.OpSMSUBL
	var a, b value.Value
	if signed {
		a, b = ec.SExt(a32, ec.IntTy(64)), ec.SExt(b32, ec.IntTy(64))
	} else {
		a, b = ec.ZExt(a32, ec.IntTy(64)), ec.ZExt(b32, ec.IntTy(64))
	}

	product := ec.Mul(a, b)
	var result value.Value
	if in.Op == instr.OpSMADDL || in.Op == instr.OpUMADDL {
		result = ec.Add(acc, product)
	} else {
		result = ec.Sub(acc, product)
	}

	ec.WriteGPR(in.Operands[0].Reg.Index, false, result)
	return nil
}

// lowerMulHigh handles SMULH/UMULH: the high 64 bits of a 64x64->128
// multiply, computed by widening to 128 bits, multiplying, and shifting
// right by 64.
func lowerMulHigh(ec *ir.EmissionContext, in instr.Instruction) error {
	a64 := ec.ReadGPR(in.Operands[1].Reg.Index, false)
	b64 := ec.ReadGPR(in.Operands[2].Reg.Index, false)

	signed := in.Op == instr.OpSMULH
	var a, b value.Value
	if signed {
		a, b = ec.SExt(a64, ec.IntTy(128)), ec.SExt(b64, ec.IntTy(128))
	} else {
		a, b = ec.ZExt(a64, ec.IntTy(128)), ec.ZExt(b64, ec.IntTy(128))
	}

	product := ec.Mul(a, b)
	shifted := ec.RawLShr(product, ec.IntConst(64, 128))
	result := ec.Trunc(shifted, ec.IntTy(64))

	ec.WriteGPR(in.Operands[0].Reg.Index, false, result)
	return nil
}

// lowerDivide handles SDIV/UDIV. SDIV routes through SafeSDiv for the
// INT_MIN/-1 overflow case; the architecture defines both forms' division
// by zero as producing 0 rather than trapping, which SDiv/UDiv's plain
// instruction would not give, so both are guarded.
func lowerDivide(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	n := ec.ReadGPR(in.Operands[1].Reg.Index, width == 32)
	d := ec.ReadGPR(in.Operands[2].Reg.Index, width == 32)

	zero := ec.IntConst(0, width)
	dIsZero := ec.ICmp(goir.IntEQ, d, zero)

	var divided value.Value
	if in.Op == instr.OpSDIV {
		divided = ec.SafeSDiv(n, d)
	} else {
		divided = ec.UDiv(n, d)
	}
	result := ec.Select(dIsZero, zero, divided)

	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}
