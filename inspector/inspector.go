// Package inspector implements a read-only tview/tcell browser over one
// Dispatcher.Lift result: the lifted IR function's blocks and the
// per-mnemonic coverage histogram that went with them. It is grounded on
// debugger/tui.go's panel layout and key-binding style, generalized from a
// live, steppable CPU view to a static, already-finished lift — there is
// nothing here to step or resume, only IR and tallies to browse.
package inspector

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	goir "github.com/llir/llvm/ir"
	"github.com/rivo/tview"

	"github.com/aslpgo/aslpgo/coverage"
)

// Inspector is the top-level application: one function, one report,
// browsed read-only.
type Inspector struct {
	Func   *goir.Function
	Report *coverage.Report

	App   *tview.Application
	Pages *tview.Pages

	MainLayout   *tview.Flex
	BlockList    *tview.List
	IRView       *tview.TextView
	CoverageView *tview.TextView
	HelpView     *tview.TextView
}

// New builds an Inspector over fn and report, ready for Run.
func New(fn *goir.Function, report *coverage.Report) *Inspector {
	insp := &Inspector{
		Func:   fn,
		Report: report,
		App:    tview.NewApplication(),
	}
	insp.initializeViews()
	insp.buildLayout()
	insp.setupKeyBindings()
	insp.populateBlockList()
	insp.updateCoverageView()
	return insp
}

// Run starts the terminal event loop; it blocks until the user quits.
func (insp *Inspector) Run() error {
	return insp.App.SetRoot(insp.Pages, true).EnableMouse(true).Run()
}

func (insp *Inspector) initializeViews() {
	insp.BlockList = tview.NewList().ShowSecondaryText(false)
	insp.BlockList.SetBorder(true).SetTitle(" Blocks ")

	insp.IRView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	insp.IRView.SetBorder(true).SetTitle(" IR ")

	insp.CoverageView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	insp.CoverageView.SetBorder(true).SetTitle(" Coverage ")

	insp.HelpView = tview.NewTextView().
		SetDynamicColors(true).
		SetText("[yellow]F1[white] help   [yellow]Tab[white] switch panel   [yellow]Ctrl+C[white] quit")
	insp.HelpView.SetBorder(false)
}

func (insp *Inspector) buildLayout() {
	left := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(insp.BlockList, 0, 1, true).
		AddItem(insp.CoverageView, 12, 0, false)

	content := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(left, 0, 1, true).
		AddItem(insp.IRView, 0, 3, false)

	insp.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(content, 0, 1, true).
		AddItem(insp.HelpView, 1, 0, false)

	insp.Pages = tview.NewPages().AddPage("main", insp.MainLayout, true, true)
}

func (insp *Inspector) setupKeyBindings() {
	insp.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			insp.App.Stop()
			return nil
		case tcell.KeyF1:
			insp.toggleHelp()
			return nil
		}
		return event
	})
}

func (insp *Inspector) toggleHelp() {
	insp.IRView.SetText(strings.Join([]string{
		"Blocks list every basic block the dispatcher created, in",
		"function order. Selecting one prints its instructions, each",
		"prefixed with whichever metadata tag it carries:",
		"",
		"  [green]asm.classic[white]  emitted by the ClassicLowerer",
		"  [blue]asm.aslp[white]     first instruction of a structured block",
		"",
		"The Coverage panel tallies, per source mnemonic, how many",
		"instances went through each of the four lowering outcomes.",
	}, "\n"))
}

// populateBlockList lists every block in the function, wiring each entry
// to render that block's instructions into IRView on selection.
func (insp *Inspector) populateBlockList() {
	for i, b := range insp.Func.Blocks {
		idx := i
		label := b.LocalIdent.Ident()
		if label == "" {
			label = fmt.Sprintf("blk%d", idx)
		}
		insp.BlockList.AddItem(label, "", 0, func() {
			insp.showBlock(insp.Func.Blocks[idx])
		})
	}
	if len(insp.Func.Blocks) > 0 {
		insp.showBlock(insp.Func.Blocks[0])
	}
}

// showBlock renders one block's instructions into IRView, annotating any
// asm.classic/asm.aslp metadata tags spec §6 attaches.
func (insp *Inspector) showBlock(b *goir.Block) {
	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]%s:[white]", b.LocalIdent.Ident()))
	for i, inst := range b.Insts {
		tag := ""
		if i == 0 {
			if v, ok := lookupMetadata(inst, "asm.aslp"); ok {
				tag = fmt.Sprintf("  [blue]; asm.aslp=%s[white]", v)
			}
		}
		lines = append(lines, fmt.Sprintf("  %s%s", inst.String(), tag))
	}
	if b.Term != nil {
		tag := ""
		if v, ok := lookupMetadata(b.Term, "asm.classic"); ok {
			tag = fmt.Sprintf("  [green]; asm.classic=%s[white]", v)
		}
		lines = append(lines, fmt.Sprintf("  %s%s", b.Term.String(), tag))
	}
	insp.IRView.SetText(strings.Join(lines, "\n"))
}

// updateCoverageView renders the per-mnemonic lowering histogram.
func (insp *Inspector) updateCoverageView() {
	if insp.Report == nil {
		insp.CoverageView.SetText("[yellow]no coverage report[white]")
		return
	}
	names := insp.Report.Mnemonics()
	sort.Strings(names)
	var lines []string
	lines = append(lines, fmt.Sprintf("%-10s %8s %8s %8s %8s", "mnemonic", "struct", "classic", "missing", "banned"))
	for _, name := range names {
		s, c, m, bnd := insp.Report.Counts(name)
		lines = append(lines, fmt.Sprintf("%-10s %8d %8d %8d %8d", name, s, c, m, bnd))
	}
	insp.CoverageView.SetText(strings.Join(lines, "\n"))
}
