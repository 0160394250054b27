package ir

import "sysyrv/src/ir/lir"

// CallGraph records, per function, the set of distinct callees and the largest argument count
// of any call it makes, feeding the back-end's frame-sizing computation.
type CallGraph struct {
	Callees map[string]map[string]bool
	MaxArgs map[string]int
}

// BuildCallGraph walks every instruction of every function in prog, recording a caller->callee
// edge and updating the caller's running max-argument-count for each Call instruction found.
func BuildCallGraph(prog *lir.Program) *CallGraph {
	cg := &CallGraph{Callees: make(map[string]map[string]bool), MaxArgs: make(map[string]int)}
	for _, name := range prog.FuncOrder {
		f := prog.Funcs[name]
		cg.Callees[name] = make(map[string]bool)
		if f.IsDeclOnly {
			continue
		}
		for _, bb := range f.Layout {
			for _, v := range bb.Insts() {
				d := v.Data()
				if d.Kind != lir.KindCall {
					continue
				}
				cg.Callees[name][d.Callee.Name] = true
				if n := len(d.Args); n > cg.MaxArgs[name] {
					cg.MaxArgs[name] = n
				}
			}
		}
	}
	return cg
}

// IsLeaf reports whether fn makes no calls at all.
func (cg *CallGraph) IsLeaf(fn string) bool {
	return len(cg.Callees[fn]) == 0
}
