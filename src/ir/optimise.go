package ir

import (
	"sysyrv/src/ir/lir"
	"sysyrv/src/util"
)

// Optimise runs a dead-code-after-terminator pass over every function in prog, mutating their
// block layouts in place. It is total: well-formed input never fails it. The pass validates then
// mutates in a single sweep, deleting unreachable instructions from the DFG rather than rewriting
// a syntax tree.
func Optimise(prog *lir.Program) {
	for _, name := range prog.FuncOrder {
		f := prog.Funcs[name]
		if f.IsDeclOnly {
			continue
		}
		optimiseFunction(f)
	}
}

func optimiseFunction(f *lir.Function) {
	worklist := sweepTerminators(f)
	removed := drainWorklist(f, worklist)
	patchMissingTerminators(f)
	util.LogOptimise(f.Name, removed)
}

// sweepTerminators walks every block; once the first terminator instruction is seen, every
// subsequent instruction in that block is dead and is dropped from the layout, queued for
// possible DFG deletion.
func sweepTerminators(f *lir.Function) []lir.Value {
	var worklist []lir.Value
	for _, bb := range f.Layout {
		insts := bb.Insts()
		cut := -1
		for i, v := range insts {
			if v.Kind().IsTerminator() {
				cut = i
				break
			}
		}
		if cut == -1 || cut == len(insts)-1 {
			continue
		}
		dead := insts[cut+1:]
		f.SetInsts(bb, insts[:cut+1])
		worklist = append(worklist, dead...)
	}
	return worklist
}

// drainWorklist repeatedly attempts to delete each queued value from the DFG. A value still
// referenced by a live instruction is re-enqueued rather than deleted, since its remover may
// itself be removed later in the same pass, freeing it up on a subsequent round; the pass reaches
// a fixed point once a full sweep of the queue deletes nothing.
func drainWorklist(f *lir.Function, worklist []lir.Value) int {
	deleted := 0
	for len(worklist) > 0 {
		var next []lir.Value
		progress := false
		for _, v := range worklist {
			if !v.IsValid() {
				continue
			}
			if f.IsReferenced(v) {
				next = append(next, v)
				continue
			}
			f.DeleteValue(v)
			deleted++
			progress = true
		}
		if !progress {
			return deleted
		}
		worklist = next
	}
	return deleted
}

// patchMissingTerminators synthesizes `ret 0` for any block of `main` left without a terminator
// (its only instructions having been statements with no trailing return); every other function
// is left as-is, since the front end guarantees a void function always terminates and a non-void
// function falling through is an upstream contract violation this pass does not paper over.
func patchMissingTerminators(f *lir.Function) {
	if f.Name != "main" {
		return
	}
	for _, bb := range f.Layout {
		if bb.Terminator().IsValid() {
			continue
		}
		zero := f.CreateInteger(0)
		f.CreateReturn(bb, zero, true)
	}
}
