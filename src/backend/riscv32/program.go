// program.go is the back-end's entry point: it turns a whole lir.Program into an asm.Program,
// lowering every user-defined function's body. Independent functions are compiled in parallel
// when the driver's -t flag asks for more than one thread; concurrency is confined to this
// already-built, purely-functional stage, so it can never make the single-threaded front end's
// semantics observable from outside.
package riscv32

import (
	"golang.org/x/sync/errgroup"

	"sysyrv/src/backend/asm"
	"sysyrv/src/ir"
	"sysyrv/src/ir/lir"
)

// LowerProgram lowers every user-defined function in prog into RV32 assembly. threads <= 1 runs
// a plain sequential loop; threads > 1 fans each function out to its own goroutine via errgroup,
// at most threads at a time. Each goroutine writes its result into the function's own slot of
// funcs, so the output keeps source order. A lowering panic is not turned into an error: it
// propagates (re-raised by lowerRecoverable with the function's name) and ends the process.
func LowerProgram(prog *lir.Program, cg *ir.CallGraph, threads int) asm.Program {
	globals := make([]asm.Global, 0, len(prog.GlobalOrder))
	for _, gv := range prog.GlobalOrder {
		d := gv.Data()
		globals = append(globals, asm.Global{Name: d.Name, Zero: d.IsZero, Word: d.IntVal})
	}

	userFuncs := make([]*lir.Function, 0, len(prog.FuncOrder))
	for _, name := range prog.FuncOrder {
		f := prog.Funcs[name]
		if !f.IsDeclOnly {
			userFuncs = append(userFuncs, f)
		}
	}

	funcs := make([]asm.Func, len(userFuncs))
	if threads <= 1 {
		for i, f := range userFuncs {
			funcs[i] = lowerRecoverable(f, cg)
		}
	} else {
		g := new(errgroup.Group)
		g.SetLimit(threads)
		for i, f := range userFuncs {
			i, f := i, f
			g.Go(func() error {
				funcs[i] = lowerRecoverable(f, cg)
				return nil
			})
		}
		_ = g.Wait() // lowerRecoverable never returns an error; panics are converted in-line.
	}

	return asm.Program{Globals: globals, Funcs: funcs}
}

// lowerRecoverable wraps LowerFunction so an internal invariant panic -- a compiler bug, not a
// user error -- still identifies which function tripped it, whether running sequentially or
// inside an errgroup goroutine.
func lowerRecoverable(f *lir.Function, cg *ir.CallGraph) (result asm.Func) {
	defer func() {
		if r := recover(); r != nil {
			panic("riscv32: lowering " + f.Name + ": " + toString(r))
		}
	}()
	return LowerFunction(f, cg)
}

func toString(r interface{}) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "unknown panic"
}
