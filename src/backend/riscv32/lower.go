// lower.go implements back-end function lowering: frame sizing, prologue/epilogue emission, and
// per-instruction lowering over the naive register pool. It walks a function's blocks in order
// and emits through a util.Writer, the same shape a syntax-tree-driven code generator would use,
// adapted here to walk a handle-based DFG instead.
package riscv32

import (
	"sysyrv/src/backend/asm"
	"sysyrv/src/ir"
	"sysyrv/src/ir/lir"
	"sysyrv/src/util"
)

// funcLowerer carries the per-function state threaded through block and instruction lowering.
type funcLowerer struct {
	fn            *lir.Function
	storage       map[lir.Value]Storage
	stackSize     int // constructive running total; must equal finalStackSize once lowering ends.
	finalStackSize int // the analytic pre-computation; known before lowering starts.
	argsStackSize int
	alignedFrame  int
	isLeaf        bool
	pool          *RegPool
}

// LowerFunction lowers one user-defined function into its asm.Func form. cg supplies the
// call-graph facts (callee arity, leaf-ness) that feed into frame sizing.
func LowerFunction(f *lir.Function, cg *ir.CallGraph) asm.Func {
	maxArgs := cg.MaxArgs[f.Name]
	argsStackSize := 0
	if maxArgs > 8 {
		argsStackSize = (maxArgs - 8) * 4
	}
	isLeaf := cg.IsLeaf(f.Name)

	analytic := AnalyticFrameSize(f)
	alignedFrame := AlignedFrameSize(analytic, argsStackSize, isLeaf)

	fl := &funcLowerer{
		fn:             f,
		storage:        make(map[lir.Value]Storage),
		finalStackSize: analytic,
		argsStackSize:  argsStackSize,
		alignedFrame:   alignedFrame,
		isLeaf:         isLeaf,
	}

	blocks := make([]asm.Block, 0, len(f.Layout))
	for i, bb := range f.Layout {
		blocks = append(blocks, fl.lowerBlock(bb, i == 0))
	}

	if fl.stackSize != analytic {
		panic("riscv32: frame size mismatch: analytic and constructive estimates disagree")
	}

	util.LogFunctionCodegen(f.Name, len(blocks), alignedFrame)
	return asm.Func{Name: f.Name, Blocks: blocks}
}

// reserveSlot hands out the next 4-byte stack slot, advancing the constructive running total
// that lower.go's final assertion checks against the analytic pre-computation.
func (fl *funcLowerer) reserveSlot() int {
	off := fl.stackSize
	fl.stackSize += 4
	return off
}

func (fl *funcLowerer) lowerBlock(bb lir.BasicBlock, isEntryBlock bool) asm.Block {
	fl.pool = NewRegPool()
	w := &util.Writer{}

	label := bb.Name()
	if isEntryBlock {
		label = fl.fn.Name
	}

	if isEntryBlock {
		fl.emitPrologue(w)
	}

	isExitBlock := false
	for _, v := range bb.Insts() {
		if v.Kind() == lir.KindReturn {
			isExitBlock = true
		}
		fl.lowerInst(w, v)
	}

	if isExitBlock {
		fl.emitEpilogue(w)
	}

	return asm.Block{Label: label, Insts: splitLines(w.String())}
}

// splitLines keeps asm.Block.Insts as one already-newline-terminated string per instruction,
// matching the line-oriented shape asm.Program.Emit expects; util.Writer accumulates a single
// buffer, so this just re-splits it on its own newlines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	return lines
}

// raSlotOffset is where the prologue saves and the epilogue restores ra: just above this
// function's own locals and its outgoing argument area. Both finalStackSize and
// argsStackSize are known before lowering begins, so this is safe to call from the entry block's
// prologue despite finalStackSize representing a total only reached after every block has run.
func (fl *funcLowerer) raSlotOffset() int {
	return fl.finalStackSize + fl.argsStackSize
}

func (fl *funcLowerer) emitPrologue(w *util.Writer) {
	w.WriteString("\t# --- Prologue of " + fl.fn.Name + " ---\n")
	generateAddi(w, fl.pool, "sp", "sp", -fl.alignedFrame)
	if !fl.isLeaf {
		generateSW(w, fl.pool, "ra", fl.raSlotOffset(), "sp")
	}
	w.WriteString("\t# --- End Prologue ---\n")
}

func (fl *funcLowerer) emitEpilogue(w *util.Writer) {
	w.WriteString("\t# --- Epilogue of " + fl.fn.Name + " ---\n")
	if !fl.isLeaf {
		generateLW(w, "ra", fl.raSlotOffset(), "sp")
	}
	generateAddi(w, fl.pool, "sp", "sp", fl.alignedFrame)
	w.WriteString("\tret\n")
	w.WriteString("\t# --- End Epilogue ---\n")
}

func (fl *funcLowerer) lowerInst(w *util.Writer, v lir.Value) {
	d := v.Data()
	switch d.Kind {
	case lir.KindAlloc:
		fl.storage[v] = Storage{Kind: StorageStack, Off: fl.reserveSlot()}
	case lir.KindLoad:
		fl.lowerLoad(w, v, d)
	case lir.KindStore:
		fl.lowerStore(w, d)
	case lir.KindBinary:
		fl.lowerBinary(w, v, d)
	case lir.KindBranch:
		fl.lowerBranch(w, d)
	case lir.KindJump:
		w.Write("\tj\t%s\n", d.Target.Name())
	case lir.KindCall:
		fl.lowerCall(w, v, d)
	case lir.KindReturn:
		fl.lowerReturn(w, d)
	default:
		panic("riscv32: unhandled instruction kind")
	}
}


func (fl *funcLowerer) lowerLoad(w *util.Writer, v lir.Value, d *lir.ValueData) {
	reg := fl.materialize(w, d.Src)
	off := fl.reserveSlot()
	generateSW(w, fl.pool, reg, off, "sp")
	fl.release(reg)
	fl.storage[v] = Storage{Kind: StorageStack, Off: off}
}

func (fl *funcLowerer) lowerStore(w *util.Writer, d *lir.ValueData) {
	reg := fl.materialize(w, d.Stored)
	fl.storeBack(w, reg, fl.storage[d.Dst])
	fl.release(reg)
}

func (fl *funcLowerer) lowerBinary(w *util.Writer, v lir.Value, d *lir.ValueData) {
	lReg := fl.materialize(w, d.Lhs)
	rReg := fl.materialize(w, d.Rhs)
	result := fl.pool.Acquire()
	switch d.Op {
	case lir.OpAdd:
		w.Ins3("add", result, lReg, rReg)
	case lir.OpSub:
		w.Ins3("sub", result, lReg, rReg)
	case lir.OpMul:
		w.Ins3("mul", result, lReg, rReg)
	case lir.OpDiv:
		w.Ins3("div", result, lReg, rReg)
	case lir.OpMod:
		w.Ins3("rem", result, lReg, rReg)
	case lir.OpAnd:
		w.Ins3("and", result, lReg, rReg)
	case lir.OpOr:
		w.Ins3("or", result, lReg, rReg)
	case lir.OpLt:
		w.Ins3("slt", result, lReg, rReg)
	case lir.OpGt:
		w.Ins3("sgt", result, lReg, rReg)
	case lir.OpLe:
		w.Ins3("sgt", result, lReg, rReg)
		w.Ins2("seqz", result, result)
	case lir.OpGe:
		w.Ins3("slt", result, lReg, rReg)
		w.Ins2("seqz", result, result)
	case lir.OpEq:
		w.Ins3("xor", result, lReg, rReg)
		w.Ins2("seqz", result, result)
	case lir.OpNe:
		w.Ins3("xor", result, lReg, rReg)
		w.Ins2("snez", result, result)
	default:
		panic("riscv32: unhandled binary operator")
	}
	fl.release(lReg)
	fl.release(rReg)
	off := fl.reserveSlot()
	generateSW(w, fl.pool, result, off, "sp")
	fl.release(result)
	fl.storage[v] = Storage{Kind: StorageStack, Off: off}
}

func (fl *funcLowerer) lowerBranch(w *util.Writer, d *lir.ValueData) {
	cond := fl.materialize(w, d.Cond)
	w.Write("\tbnez\t%s, %s\n", cond, d.TrueBB.Name())
	w.Write("\tj\t%s\n", d.FalseBB.Name())
	fl.release(cond)
}

func (fl *funcLowerer) lowerCall(w *util.Writer, v lir.Value, d *lir.ValueData) {
	for i, a := range d.Args {
		reg := fl.materialize(w, a)
		if i < 8 {
			w.Ins2("mv", ArgRegs[i], reg)
		} else {
			generateSW(w, fl.pool, reg, (i-8)*4, "sp")
		}
		fl.release(reg)
	}
	w.Write("\tcall\t%s\n", d.Callee.Name)
	off := fl.reserveSlot()
	generateSW(w, fl.pool, "a0", off, "sp")
	fl.storage[v] = Storage{Kind: StorageStack, Off: off}
}

func (fl *funcLowerer) lowerReturn(w *util.Writer, d *lir.ValueData) {
	if d.HasRet {
		reg := fl.materialize(w, d.RetVal)
		w.Ins2("mv", "a0", reg)
		fl.release(reg)
	}
}

// materialize loads v's value into a register, dispatching on its storage kind.
func (fl *funcLowerer) materialize(w *util.Writer, v lir.Value) string {
	st := fl.storageOf(v)
	switch st.Kind {
	case StorageImmediate:
		if st.Imm == 0 {
			return "x0"
		}
		temp := fl.pool.Acquire()
		w.Write("\tli\t%s, %d\n", temp, st.Imm)
		return temp
	case StorageStack:
		temp := fl.pool.Acquire()
		generateLW(w, temp, st.Off, "sp")
		return temp
	case StorageRegister:
		return st.Reg
	case StorageGlobal:
		addr := fl.pool.Acquire()
		w.Write("\tla\t%s, %s\n", addr, st.Label)
		val := fl.pool.Acquire()
		generateLW(w, val, 0, addr)
		fl.pool.Release(addr)
		return val
	default:
		panic("riscv32: unhandled storage kind in materialize")
	}
}

// storeBack writes reg into dst, dispatching on its storage kind.
func (fl *funcLowerer) storeBack(w *util.Writer, reg string, dst Storage) {
	switch dst.Kind {
	case StorageStack:
		generateSW(w, fl.pool, reg, dst.Off, "sp")
	case StorageGlobal:
		addr := fl.pool.Acquire()
		w.Write("\tla\t%s, %s\n", addr, dst.Label)
		generateSW(w, fl.pool, reg, 0, addr)
		fl.pool.Release(addr)
	default:
		panic("riscv32: invalid store target: immediates and registers are not assignable")
	}
}

// release returns reg to the pool iff it is a temporary; RegPool.Release already no-ops for
// argument registers, x0 and sp, so call sites never need to check first.
func (fl *funcLowerer) release(reg string) {
	fl.pool.Release(reg)
}

// storageOf resolves v's Storage. Alloc/Load/Binary/Call results are bound as they are lowered
// (see lowerInst) and simply looked up here; Integer, FuncArgRef and GlobalAlloc values are
// never appended to any block (they are pure operands, referenced inline) so their storage is
// computed lazily on first reference instead.
func (fl *funcLowerer) storageOf(v lir.Value) Storage {
	if st, ok := fl.storage[v]; ok {
		return st
	}
	d := v.Data()
	switch d.Kind {
	case lir.KindInteger:
		return Storage{Kind: StorageImmediate, Imm: d.IntVal}
	case lir.KindFuncArgRef:
		st := fl.bindFuncArgRef(d.ArgIndex)
		fl.storage[v] = st
		return st
	case lir.KindGlobalAlloc:
		return Storage{Kind: StorageGlobal, Label: d.Name}
	default:
		panic("riscv32: referenced value has no bound storage")
	}
}

// bindFuncArgRef computes an incoming parameter's storage: the first eight live in argument
// registers; the rest live in the caller's outgoing-argument area, just above this function's
// own frame.
func (fl *funcLowerer) bindFuncArgRef(i int) Storage {
	if i < 8 {
		return Storage{Kind: StorageRegister, Reg: ArgRegs[i]}
	}
	return Storage{Kind: StorageStack, Off: (i-8)*4 + fl.alignedFrame}
}
