package classic

import (
	goir "github.com/llir/llvm/ir"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func init() {
	register([]instr.Op{instr.OpB, instr.OpBL}, lowerDirectBranch)
	register([]instr.Op{instr.OpBR, instr.OpBLR}, lowerIndirectBranch)
	register([]instr.Op{instr.OpRET}, lowerRet)
	register([]instr.Op{instr.OpBcc}, lowerCondBranch)
	register([]instr.Op{instr.OpCBZ, instr.OpCBNZ}, lowerCompareBranch)
	register([]instr.Op{instr.OpTBZ, instr.OpTBNZ}, lowerTestBranch)
}

// branchTarget resolves a PC-relative target operand (already decoded to an
// absolute address) to its block, falling back to a fresh unreachable trap
// block for a target outside the lifted function (an external call/tail
// jump); the validator only needs the in-function control flow to be exact.
func branchTarget(ec *ir.EmissionContext, addr uint64) *goir.Block {
	if b, ok := ec.BlockAtAddr(addr); ok {
		return b
	}
	b := ec.NewBlock("external")
	saved := ec.Cursor()
	ec.SetCursor(b)
	ec.Trap()
	ec.Unreachable()
	ec.SetCursor(saved)
	return b
}

func lowerDirectBranch(ec *ir.EmissionContext, in instr.Instruction) error {
	target := uint64(in.Operands[0].Imm)
	if in.Op == instr.OpBL {
		ec.WriteGPR(30, false, ec.IntConst(int64(in.Address+4), 64)) // link register
	}
	ec.Branch(branchTarget(ec, target))
	return nil
}

// lowerIndirectBranch handles BR/BLR: the target is a register value, which
// this translation validator backend cannot resolve to a static block, so
// it is modeled as a trap — indirect control flow is out of scope for the
// lifted function body (spec's driver/decoder boundary).
func lowerIndirectBranch(ec *ir.EmissionContext, in instr.Instruction) error {
	if in.Op == instr.OpBLR {
		ec.WriteGPR(30, false, ec.IntConst(int64(in.Address+4), 64))
	}
	ec.Trap()
	ec.Unreachable()
	return nil
}

func lowerRet(ec *ir.EmissionContext, in instr.Instruction) error {
	ec.Ret()
	return nil
}

func lowerCondBranch(ec *ir.EmissionContext, in instr.Instruction) error {
	target := uint64(in.Operands[0].Imm)
	cond := evalCond(ec, in.Cond)
	fallthroughAddr := in.Address + 4
	ec.CondBranch(cond, branchTarget(ec, target), branchTarget(ec, fallthroughAddr))
	return nil
}

func lowerCompareBranch(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	v := ec.ReadGPR(in.Operands[0].Reg.Index, width == 32)
	zero := ec.IntConst(0, width)
	isZero := ec.ICmp(goir.IntEQ, v, zero)

	target := uint64(in.Operands[1].Imm)
	fallthroughAddr := in.Address + 4

	var cond = isZero
	if in.Op == instr.OpCBNZ {
		cond = ec.Not(isZero)
	}
	ec.CondBranch(cond, branchTarget(ec, target), branchTarget(ec, fallthroughAddr))
	return nil
}

func lowerTestBranch(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	v := ec.ReadGPR(in.Operands[0].Reg.Index, width == 32)
	bitIndex := in.Operands[1].Imm
	bit := ec.And(ec.RawLShr(v, ec.IntConst(bitIndex, width)), ec.IntConst(1, width))
	isZero := ec.ICmp(goir.IntEQ, bit, ec.IntConst(0, width))

	target := uint64(in.Operands[2].Imm)
	fallthroughAddr := in.Address + 4

	var cond = isZero
	if in.Op == instr.OpTBNZ {
		cond = ec.Not(isZero)
	}
	ec.CondBranch(cond, branchTarget(ec, target), branchTarget(ec, fallthroughAddr))
	return nil
}
