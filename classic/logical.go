package classic

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func init() {
	register([]instr.Op{instr.OpAND, instr.OpANDS, instr.OpORR, instr.OpORN,
		instr.OpEOR, instr.OpEON, instr.OpBIC, instr.OpBICS}, lowerLogical)
	register([]instr.Op{instr.OpCSEL, instr.OpCSINC, instr.OpCSINV, instr.OpCSNEG}, lowerCondSelect)
	register([]instr.Op{instr.OpCCMP, instr.OpCCMN}, lowerCondCompare)
}

func lowerLogical(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	x := readSrc(ec, in, 1, width)
	y := readSrc(ec, in, 2, width)

	negateY := in.Op == instr.OpORN || in.Op == instr.OpEON ||
		in.Op == instr.OpBIC || in.Op == instr.OpBICS
	if negateY {
		y = ec.Not(y)
	}

	var result value.Value
	switch in.Op {
	case instr.OpAND, instr.OpANDS, instr.OpBIC, instr.OpBICS:
		result = ec.And(x, y)
	case instr.OpORR, instr.OpORN:
		result = ec.Or(x, y)
	case instr.OpEOR, instr.OpEON:
		result = ec.Xor(x, y)
	}

	if in.Op == instr.OpANDS || in.Op == instr.OpBICS {
		updateNZ(ec, result, width)
		ec.Store(boolConst(false), ec.FlagReg(ir.FlagC))
		ec.Store(boolConst(false), ec.FlagReg(ir.FlagV))
	}

	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}

// lowerCondSelect handles CSEL/CSINC/CSINV/CSNEG: select between the two
// source registers (optionally incremented/inverted/negated) based on the
// condition.
func lowerCondSelect(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	x := readSrc(ec, in, 1, width)
	y := readSrc(ec, in, 2, width)
	cond := evalCond(ec, in.Cond)

	var alt value.Value
	switch in.Op {
	case instr.OpCSEL:
		alt = y
	case instr.OpCSINC:
		alt = ec.Add(y, ec.IntConst(1, width))
	case instr.OpCSINV:
		alt = ec.Not(y)
	case instr.OpCSNEG:
		alt = ec.Sub(ec.IntConst(0, width), y)
	}

	result := ec.Select(cond, x, alt)
	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}

// lowerCondCompare handles CCMP/CCMN: when the outer condition holds,
// perform a subtract/add and set flags from it; otherwise the flags are
// set directly from a 4-bit immediate ("nzcv").
func lowerCondCompare(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	x := readSrc(ec, in, 0, width)
	y := readSrc(ec, in, 1, width)
	nzcv := in.Operands[2].Imm
	cond := evalCond(ec, in.Cond)

	var passResult value.Value
	if in.Op == instr.OpCCMP {
		passResult = lowerSubFlags(ec, x, y, width)
	} else {
		passResult = lowerAddFlags(ec, x, y, width)
	}
	_ = passResult

	// The flag-writing helpers above always store into the flag cells
	// unconditionally; CCMP/CCMN must only keep that result when cond
	// holds, otherwise overwrite with the literal nzcv bits.
	n := ec.Select(cond, ec.LoadFlag(ir.FlagN), boolConst(nzcv&0x8 != 0))
	z := ec.Select(cond, ec.LoadFlag(ir.FlagZ), boolConst(nzcv&0x4 != 0))
	c := ec.Select(cond, ec.LoadFlag(ir.FlagC), boolConst(nzcv&0x2 != 0))
	v := ec.Select(cond, ec.LoadFlag(ir.FlagV), boolConst(nzcv&0x1 != 0))
	ec.Store(n, ec.FlagReg(ir.FlagN))
	ec.Store(z, ec.FlagReg(ir.FlagZ))
	ec.Store(c, ec.FlagReg(ir.FlagC))
	ec.Store(v, ec.FlagReg(ir.FlagV))
	return nil
}

func boolConst(b bool) value.Value {
	if b {
		return constant.NewInt(1, types.I1)
	}
	return constant.NewInt(0, types.I1)
}

// evalCond evaluates an AArch64 condition code against the current N/Z/C/V
// flags, returning a single-bit value.
func evalCond(ec *ir.EmissionContext, cond instr.Cond) value.Value {
	n := ec.LoadFlag(ir.FlagN)
	z := ec.LoadFlag(ir.FlagZ)
	c := ec.LoadFlag(ir.FlagC)
	v := ec.LoadFlag(ir.FlagV)

	switch cond {
	case instr.EQ:
		return z
	case instr.NE:
		return ec.Not(z)
	case instr.CS:
		return c
	case instr.CC:
		return ec.Not(c)
	case instr.MI:
		return n
	case instr.PL:
		return ec.Not(n)
	case instr.VS:
		return v
	case instr.VC:
		return ec.Not(v)
	case instr.HI:
		return ec.And(c, ec.Not(z))
	case instr.LS:
		return ec.Or(ec.Not(c), z)
	case instr.GE:
		return ec.Not(ec.Xor(n, v))
	case instr.LT:
		return ec.Xor(n, v)
	case instr.GT:
		return ec.And(ec.Not(z), ec.Not(ec.Xor(n, v)))
	case instr.LE:
		return ec.Or(z, ec.Xor(n, v))
	case instr.AL, instr.NV:
		return boolConst(true)
	default:
		return boolConst(true)
	}
}
