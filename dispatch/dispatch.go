// Package dispatch implements spec §4.5's InstructionDispatcher: the state
// machine that decides, per instruction, whether to lower through the
// structured SemanticsLowerer or fall back to the ClassicLowerer, and
// stitches both paths' blocks into one function against a shared
// *ir.EmissionContext. It is the one place that imports every other
// package in this module (config, semclient, semlower, classic, coverage),
// matching the teacher's vm/executor.go's role as the component that wires
// decode, the opcode table, and the flag/trace bookkeeping together.
package dispatch

import (
	"context"
	"fmt"

	goir "github.com/llir/llvm/ir"

	"github.com/aslpgo/aslpgo/classic"
	"github.com/aslpgo/aslpgo/config"
	"github.com/aslpgo/aslpgo/coverage"
	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
	"github.com/aslpgo/aslpgo/semclient"
	"github.com/aslpgo/aslpgo/semlower"
)

// Kind classifies a dispatch-level failure (spec §7's six-entry taxonomy).
type Kind int

const (
	KindUnknownEncoding Kind = iota
	KindBannedEncoding
	KindUnsupportedOpcode
	KindMalformedSemantics
	KindInvariantViolation
	KindEnvironmentError
)

func (k Kind) String() string {
	switch k {
	case KindUnknownEncoding:
		return "unknown-encoding"
	case KindBannedEncoding:
		return "banned-encoding"
	case KindUnsupportedOpcode:
		return "unsupported-opcode"
	case KindMalformedSemantics:
		return "malformed-semantics"
	case KindInvariantViolation:
		return "invariant-violation"
	case KindEnvironmentError:
		return "environment-error"
	default:
		return "unknown"
	}
}

// Error is the dispatcher's single error type. Every fatal condition it
// raises carries a Kind so a caller (or the inspector) can tell an
// unsupported opcode from a malformed-semantics parse failure without
// string-matching.
type Error struct {
	Kind     Kind
	Mnemonic string
	Address  uint64
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dispatch: %s lowering %s at 0x%x: %v", e.Kind, e.Mnemonic, e.Address, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DefaultBanned is the built-in set of opcodes the dispatcher never even
// attempts to send through the structured path: the pseudo-nop catalog
// (PRFM, the PAC/AUT hint forms, HINT) plus BRK, which lowers to a real
// trap and has never had structured semantics worth fetching for it. This
// is package dispatch's own copy rather than an export of
// instr.bannedPseudoNops (spec §9's open question: the original source
// keeps two overlapping banned lists; this module keeps exactly one,
// consolidated here, with instr.IsPseudoNop only covering the "lowers to
// nothing" subset classic/nop.go cares about).
func DefaultBanned() map[instr.Op]bool {
	return map[instr.Op]bool{
		instr.OpPRFM:    true,
		instr.OpPACIASP: true,
		instr.OpPACIBSP: true,
		instr.OpAUTIASP: true,
		instr.OpAUTIBSP: true,
		instr.OpHINT:    true,
		instr.OpBRK:     true,
	}
}

// controlFlowOps never go through the structured path: a branch target or
// return has to resolve to a concrete *ir.Block the dispatcher's two-pass
// address map already built, which only the ClassicLowerer's branch
// routines (package classic's branch.go) know how to consult.
var controlFlowOps = map[instr.Op]bool{
	instr.OpB:    true,
	instr.OpBL:   true,
	instr.OpBR:   true,
	instr.OpBLR:  true,
	instr.OpRET:  true,
	instr.OpBcc:  true,
	instr.OpCBZ:  true,
	instr.OpCBNZ: true,
	instr.OpTBZ:  true,
	instr.OpTBNZ: true,
}

// Dispatcher lifts one instruction stream into one IR function, per spec
// §5: never shared between goroutines, never reused across runs.
type Dispatcher struct {
	cfg    *config.Config
	client semclient.Client
	banned map[instr.Op]bool
}

// New builds a Dispatcher over cfg's configuration and client's semantics
// backend, consolidating cfg.Banned's raw opcode ids on top of
// DefaultBanned.
func New(cfg *config.Config, client semclient.Client) *Dispatcher {
	banned := DefaultBanned()
	for _, id := range cfg.Banned {
		banned[instr.Op(id)] = true
	}
	return &Dispatcher{cfg: cfg, client: client, banned: banned}
}

// Lift lowers instrs, in address order, into a single IR function and
// returns the resulting function alongside a per-mnemonic coverage report.
//
// Every instruction gets its own pre-created block (pass 1 below), so each
// one eventually acquires exactly one terminator: either one its own
// lowering emits directly (a branch family routine), or the bridging
// branch to the next instruction's block that this loop adds on the
// following iteration. asm.classic tagging has to happen at whichever of
// those two points actually supplies the terminator, which is why the
// tag for a non-branching classic instruction is applied one iteration
// late, against prevMnemonic/havePrev below, rather than inside liftOne.
func (d *Dispatcher) Lift(ctx context.Context, name string, instrs []instr.Instruction) (*goir.Function, *coverage.Report, error) {
	ec := ir.NewEmissionContext(name)
	report := coverage.NewReport(d.cfg.Debug)

	// Pass 1: pre-create one block per instruction address so branch
	// targets resolve regardless of direction (spec §4.5's two-pass
	// requirement).
	for _, in := range instrs {
		ec.RegisterBlockAddr(in.Address, ec.NewBlock(fmt.Sprintf("i%x", in.Address)))
	}

	var prevMnemonic string
	havePrev := false

	// Pass 2: lower each instruction into its pre-created block.
	for _, in := range instrs {
		blk, _ := ec.BlockAtAddr(in.Address)
		if !ec.Terminated() {
			ec.Branch(blk)
			if havePrev {
				ec.TagTerminator(ec.Cursor(), "asm.classic", prevMnemonic)
			}
		}
		ec.SetCursor(blk)
		havePrev = false

		structured, err := d.liftOne(ctx, ec, report, in)
		if err != nil {
			return ec.Func, report, err
		}
		if structured {
			continue
		}
		if ec.Terminated() {
			ec.TagTerminator(ec.Cursor(), "asm.classic", in.Mnemonic)
		} else {
			prevMnemonic, havePrev = in.Mnemonic, true
		}
	}

	if !ec.Terminated() {
		ec.Unreachable()
		if havePrev {
			ec.TagTerminator(ec.Cursor(), "asm.classic", prevMnemonic)
		}
	}
	return ec.Func, report, nil
}

// liftOne runs spec §4.5's state machine for a single instruction:
// StartInstr -> TryStructured -> (Structured -> AfterInstr) |
// (Banned|Missing -> Classic -> AfterInstr). It reports whether in went
// through the structured path, so Lift knows whether asm.classic tagging
// is its own responsibility to complete.
func (d *Dispatcher) liftOne(ctx context.Context, ec *ir.EmissionContext, report *coverage.Report, in instr.Instruction) (structured bool, err error) {
	if d.skipStructured(in) {
		path := coverage.PathClassic
		if d.banned[in.Op] {
			path = coverage.PathBanned
		}
		report.Logger.Tracef("%s at 0x%x: structured skipped, classic", in.Mnemonic, in.Address)
		return false, d.lowerClassic(ec, report, in, path)
	}

	name, text, ferr := d.client.Fetch(ctx, in.Encoding)
	if ferr != nil {
		report.Logger.Tracef("%s at 0x%x: no structured semantics (%v)", in.Mnemonic, in.Address, ferr)
		if d.cfg.FailIfMissing {
			return false, &Error{Kind: KindUnknownEncoding, Mnemonic: in.Mnemonic, Address: in.Address, Err: ferr}
		}
		return false, d.lowerClassic(ec, report, in, coverage.PathMissing)
	}

	entry, exit, lerr := semlower.Lower(ec, in, text)
	if lerr != nil {
		return false, &Error{Kind: KindMalformedSemantics, Mnemonic: in.Mnemonic, Address: in.Address, Err: fmt.Errorf("%s: %w", name, lerr)}
	}

	ec.Branch(entry)
	ec.TagEntry(entry, "asm.aslp", in.Mnemonic)
	ec.SetCursor(exit)
	report.Record(in.Mnemonic, coverage.PathStructured)
	return true, nil
}

// skipStructured reports whether in must go straight to classic: the
// structured path is disabled entirely, in has no recovered 4-byte
// encoding to query the SemanticsClient with (spec §6 Inputs), in is a
// control-flow instruction the ClassicLowerer's branch routines alone know
// how to resolve to a block, or in's opcode is on the (built-in plus
// admin-configured) banned list.
func (d *Dispatcher) skipStructured(in instr.Instruction) bool {
	if !d.cfg.Enable {
		return true
	}
	if !in.CanEncode {
		return true
	}
	if controlFlowOps[in.Op] {
		return true
	}
	return d.banned[in.Op]
}

// lowerClassic runs the ClassicLowerer on in and records path in the
// coverage report. A classic routine missing for in's opcode is always
// fatal (spec §7's UnsupportedOpcode, "emit a partial-lift diagnostic with
// the IR emitted so far"). Tagging the resulting block's terminator with
// asm.classic is the caller's (Lift's) job: a non-branching routine here
// leaves its block un-terminated until Lift bridges it to the next
// instruction.
func (d *Dispatcher) lowerClassic(ec *ir.EmissionContext, report *coverage.Report, in instr.Instruction, path coverage.Path) error {
	if !classic.Supported(in.Op) {
		return &Error{
			Kind:     KindUnsupportedOpcode,
			Mnemonic: in.Mnemonic,
			Address:  in.Address,
			Err:      fmt.Errorf("no classic routine registered; partial IR so far:\n%s", ec.Func.String()),
		}
	}
	if err := classic.Lower(ec, in); err != nil {
		return &Error{Kind: KindUnsupportedOpcode, Mnemonic: in.Mnemonic, Address: in.Address, Err: err}
	}
	report.Record(in.Mnemonic, path)
	return nil
}
