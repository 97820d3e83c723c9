// Package classic lowers one decoded AArch64 instruction straight to IR
// through a fixed per-opcode routine (spec §4.4), the fallback path the
// dispatcher uses whenever structured lowering is unavailable or disabled.
// Every routine reads its source registers through ec.Reg/ec.ReadGPR/
// ec.ReadVec, writes its destination through exactly one register-cell
// store, and updates N/Z/C/V only on the instruction's "S" (set-flags)
// form — matching the teacher's vm/data_processing.go routines, which read
// CPU.GetRegister, compute, and write back through exactly one
// CPU.SetRegister call plus an optional UpdateFlags* call.
package classic

import (
	"fmt"

	goir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

// Routine lowers one instruction of a given Op, appending IR at ec's
// current cursor.
type Routine func(ec *ir.EmissionContext, in instr.Instruction) error

// table maps every supported Op to its routine. Instructions sharing a
// family (e.g. ADD/ADDS/SUB/SUBS) share one routine, parameterized by the
// decoded instr.Instruction rather than forking per-mnemonic code, the way
// vm/data_processing.go's ExecuteDataProcessing switches on an opcode
// constant into shared arithmetic helpers.
var table = map[instr.Op]Routine{}

func register(ops []instr.Op, r Routine) {
	for _, op := range ops {
		table[op] = r
	}
}

// ErrUnsupportedOpcode is wrapped into a dispatch-level error by the caller;
// it is returned verbatim here so package classic does not need to import
// package dispatch's error taxonomy.
type ErrUnsupportedOpcode struct {
	Op instr.Op
}

func (e *ErrUnsupportedOpcode) Error() string {
	return fmt.Sprintf("classic: unsupported opcode %v (%s)", e.Op, e.Op.Mnemonic())
}

// Lower dispatches in to its registered routine. The caller (package
// dispatch) has already created and positioned the destination block.
func Lower(ec *ir.EmissionContext, in instr.Instruction) error {
	r, ok := table[in.Op]
	if !ok {
		return &ErrUnsupportedOpcode{Op: in.Op}
	}
	return r(ec, in)
}

// Supported reports whether op has a registered routine, used by the
// dispatcher to report a missing routine as an unsupported-opcode error
// before calling Lower.
func Supported(op instr.Op) bool {
	_, ok := table[op]
	return ok
}

// regWidth64 reports whether operand index i of in is a 64-bit (X) register
// reference, the common "is this the W or X form" test every arithmetic
// routine needs.
func regWidth64(in instr.Instruction, i int) bool {
	return in.Operands[i].Reg.Width == instr.X
}

// updateNZ stores the N and Z flags for a 2's-complement result of the
// given bit width.
func updateNZ(ec *ir.EmissionContext, result value.Value, width int) {
	zero := ec.IntConst(0, width)
	z := ec.ICmp(goir.IntEQ, result, zero)
	n := ec.ICmp(goir.IntSLT, result, zero)
	ec.Store(z, ec.FlagReg(ir.FlagZ))
	ec.Store(n, ec.FlagReg(ir.FlagN))
}
