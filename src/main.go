package main

import (
	"fmt"
	"os"

	"sysyrv/src/backend/riscv32"
	"sysyrv/src/frontend"
	"sysyrv/src/ir"
	"sysyrv/src/util"
)

// run drives the compiler's strict pipeline: parse -> IR-gen -> optimise ->
// (koopa print | call-graph analysis -> back-end -> emit).
func run(opt util.Options) error {
	src, err := util.ReadSource(opt)
	if err != nil {
		return fmt.Errorf("could not read source code: %w", err)
	}

	util.LogPhase("parse")
	cu, err := frontend.Parse(src)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	util.LogPhaseComplete("parse")

	util.LogPhase("genir")
	prog, err := ir.Generate(cu)
	if err != nil {
		return fmt.Errorf("semantic error: %w", err)
	}
	util.LogPhaseComplete("genir")

	util.LogPhase("optimise")
	ir.Optimise(prog)
	util.LogPhaseComplete("optimise")

	if opt.Koopa {
		return util.WriteOutput(opt, prog.String())
	}

	util.LogPhase("callgraph")
	cg := ir.BuildCallGraph(prog)
	util.LogPhaseComplete("callgraph")

	util.LogPhase("codegen")
	asmProg := riscv32.LowerProgram(prog, cg, opt.Threads)
	util.LogPhaseComplete("codegen")

	return util.WriteOutput(opt, asmProg.Emit())
}

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Printf("usage error: %s\n", err)
		os.Exit(1)
	}
	util.InitLog(opt)

	if err := run(opt); err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
}
