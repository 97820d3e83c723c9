package classic

import (
	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func init() {
	register([]instr.Op{instr.OpPRFM, instr.OpPACIASP, instr.OpPACIBSP,
		instr.OpAUTIASP, instr.OpAUTIBSP, instr.OpHINT}, lowerNop)
	register([]instr.Op{instr.OpBRK}, lowerBrk)
}

// lowerNop handles the pseudo-nop catalog (spec §4.4): PRFM's prefetch hint
// and the pointer-authentication sign/auth instructions carry no observable
// data-flow effect for this module's level of abstraction, and HINT's NOP/
// YIELD/WFE/WFI/SEV forms are scheduling hints only.
func lowerNop(ec *ir.EmissionContext, in instr.Instruction) error {
	return nil
}

// lowerBrk lowers BRK to a trap, unlike the rest of the pseudo-nop catalog
// it shares a table with (instr.IsPseudoNop excludes it for this reason).
func lowerBrk(ec *ir.EmissionContext, in instr.Instruction) error {
	ec.Trap()
	ec.Unreachable()
	return nil
}
