package classic

import (
	"github.com/llir/llvm/ir/value"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func init() {
	register([]instr.Op{instr.OpLD1}, lowerStructLoad(1))
	register([]instr.Op{instr.OpLD2}, lowerStructLoad(2))
	register([]instr.Op{instr.OpLD3}, lowerStructLoad(3))
	register([]instr.Op{instr.OpLD4}, lowerStructLoad(4))
	register([]instr.Op{instr.OpST1}, lowerStructStore(1))
	register([]instr.Op{instr.OpST2}, lowerStructStore(2))
	register([]instr.Op{instr.OpST3}, lowerStructStore(3))
	register([]instr.Op{instr.OpST4}, lowerStructStore(4))
	register([]instr.Op{instr.OpLD1R}, lowerLd1r)
}

// lowerStructLoad handles LD1..LD4: n vector registers loaded from memory
// with per-element interleaving stride n (the structure-load deinterleave
// ARM defines), addressed at [operand n] with no writeback (the decoded
// post-index increment amount, when present, is not modeled — this lifter
// only needs the loaded register values, not the incremented base).
func lowerStructLoad(n int) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		lanes, elemBits := in.Operands[0].Reg.Lanes, in.Operands[0].Reg.ElemBits
		elemBytes := int64(elemBits / 8)
		groupBytes := elemBytes * int64(n)
		base, off := memAddr(ec, in, n)

		for r := 0; r < n; r++ {
			acc := ec.UndefVec(lanes, elemBits)
			for l := 0; l < lanes; l++ {
				addr := off + int64(l)*groupBytes + int64(r)*elemBytes
				elem := ec.LoadWithOffset(base, addr, elemBits)
				acc = ec.InsertElement(acc, elem, ec.IntConst(int64(l), 32))
			}
			ec.WriteVec(in.Operands[r].Reg.Index, acc)
		}
		return nil
	}
}

func lowerStructStore(n int) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		lanes, elemBits := in.Operands[0].Reg.Lanes, in.Operands[0].Reg.ElemBits
		elemBytes := int64(elemBits / 8)
		groupBytes := elemBytes * int64(n)
		base, off := memAddr(ec, in, n)
		vecTy := ec.VecTy(ec.IntTy(elemBits), lanes)

		for r := 0; r < n; r++ {
			v := ec.ReadVec(in.Operands[r].Reg.Index, vecTy)
			for l := 0; l < lanes; l++ {
				addr := off + int64(l)*groupBytes + int64(r)*elemBytes
				elem := ec.ExtractElement(v, ec.IntConst(int64(l), 32))
				ec.StoreWithOffset(base, addr, elemBits, elem)
			}
		}
		return nil
	}
}

// lowerLd1r handles LD1R: a single element loaded from memory and
// broadcast to every lane of the destination vector register.
func lowerLd1r(ec *ir.EmissionContext, in instr.Instruction) error {
	lanes, elemBits := in.Operands[0].Reg.Lanes, in.Operands[0].Reg.ElemBits
	base, off := memAddr(ec, in, 1)
	elem := ec.LoadWithOffset(base, off, elemBits)

	var result value.Value = ec.UndefVec(lanes, elemBits)
	for l := 0; l < lanes; l++ {
		result = ec.InsertElement(result, elem, ec.IntConst(int64(l), 32))
	}
	ec.WriteVec(in.Operands[0].Reg.Index, result)
	return nil
}
