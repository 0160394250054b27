package lir

import "fmt"

// Function owns a data-flow graph of Values plus an ordered layout of BasicBlocks, addressed
// through the opaque handle indirection described in lir.go rather than raw pointers.
type Function struct {
	Name       string
	ParamNames []string // for debug printing only; arity lives in len(ParamNames).
	HasRet     bool      // true for a function returning int, false for void

	IsDeclOnly bool // true for library functions: no body, callable by name only.

	dfg    map[int]*ValueData
	nextID int

	blocks map[int]*blockData
	nextBB int
	Layout []BasicBlock // basic blocks in emission order; Layout[0] is the entry block.
}

// NewFunction allocates an empty function shell; Program.DeclareFunction and
// Program.DefineFunction are the entry points genir.go uses to populate one.
func NewFunction(name string, params []string, hasRet bool) *Function {
	return &Function{
		Name:       name,
		ParamNames: params,
		HasRet:     hasRet,
		dfg:        make(map[int]*ValueData),
		blocks:     make(map[int]*blockData),
	}
}

func (f *Function) alloc(d *ValueData) Value {
	f.nextID++
	id := f.nextID
	f.dfg[id] = d
	return Value{fn: f, id: id}
}

// addUse records that user reads operand as one of its operands, so the dead-code sweep can
// tell whether deleting user would free operand up too.
func (f *Function) addUse(operand, user Value) {
	if !operand.IsValid() {
		return
	}
	d := operand.Data()
	d.Uses = append(d.Uses, user)
}

// CreateBlock appends a new, empty basic block to the function's layout and returns its handle.
func (f *Function) CreateBlock(name string) BasicBlock {
	f.nextBB++
	id := f.nextBB
	f.blocks[id] = &blockData{name: name}
	bb := BasicBlock{fn: f, id: id}
	f.Layout = append(f.Layout, bb)
	return bb
}

func (f *Function) append(bb BasicBlock, v Value) {
	bd := bb.data()
	bd.insts = append(bd.insts, v)
}

// ----------------------------
// ----- Builder methods -----
// ----------------------------

// CreateInteger materialises a constant int32 (not appended to any block; constants are
// referenced inline by operand).
func (f *Function) CreateInteger(n int32) Value {
	return f.alloc(&ValueData{Kind: KindInteger, IntVal: n})
}

// CreateFuncArgRef materialises the i'th incoming parameter as a pseudo-value; genir.go stores
// it into a fresh Alloc immediately so the parameter behaves like any other local variable.
func (f *Function) CreateFuncArgRef(i int) Value {
	return f.alloc(&ValueData{Kind: KindFuncArgRef, ArgIndex: i})
}

// CreateAlloc appends a stack-slot allocation to bb and returns its handle.
func (f *Function) CreateAlloc(bb BasicBlock) Value {
	v := f.alloc(&ValueData{Kind: KindAlloc})
	f.append(bb, v)
	return v
}

// CreateLoad appends a load of src to bb.
func (f *Function) CreateLoad(bb BasicBlock, src Value) Value {
	v := f.alloc(&ValueData{Kind: KindLoad, Src: src})
	f.addUse(src, v)
	f.append(bb, v)
	return v
}

// CreateStore appends a store of val into dst to bb. Store has no result value of its own, but
// for uniformity with the rest of the builder API it still returns a handle (callers discard it).
func (f *Function) CreateStore(bb BasicBlock, val, dst Value) Value {
	v := f.alloc(&ValueData{Kind: KindStore, Stored: val, Dst: dst})
	f.addUse(val, v)
	f.addUse(dst, v)
	f.append(bb, v)
	return v
}

// CreateBinary appends a binary operation to bb. Both operands must already be defined; every
// arithmetic/comparison/logical opcode shares this one op-parameterised builder.
func (f *Function) CreateBinary(bb BasicBlock, op BinOp, lhs, rhs Value) Value {
	v := f.alloc(&ValueData{Kind: KindBinary, Op: op, Lhs: lhs, Rhs: rhs})
	f.addUse(lhs, v)
	f.addUse(rhs, v)
	f.append(bb, v)
	return v
}

// CreateBranch appends a conditional branch terminator to bb.
func (f *Function) CreateBranch(bb BasicBlock, cond Value, trueBB, falseBB BasicBlock) Value {
	v := f.alloc(&ValueData{Kind: KindBranch, Cond: cond, TrueBB: trueBB, FalseBB: falseBB})
	f.addUse(cond, v)
	f.append(bb, v)
	return v
}

// CreateJump appends an unconditional jump terminator to bb.
func (f *Function) CreateJump(bb BasicBlock, target BasicBlock) Value {
	v := f.alloc(&ValueData{Kind: KindJump, Target: target})
	f.append(bb, v)
	return v
}

// CreateReturn appends a return terminator to bb. hasRet must be false iff the function is void.
func (f *Function) CreateReturn(bb BasicBlock, retVal Value, hasRet bool) Value {
	v := f.alloc(&ValueData{Kind: KindReturn, RetVal: retVal, HasRet: hasRet})
	if hasRet {
		f.addUse(retVal, v)
	}
	f.append(bb, v)
	return v
}

// CreateCall appends a call to callee with args to bb. callee may be a library function
// declaration (IsDeclOnly) or a user-defined function already registered with the Program.
func (f *Function) CreateCall(bb BasicBlock, callee *Function, args []Value) Value {
	v := f.alloc(&ValueData{Kind: KindCall, Callee: callee, Args: args})
	for _, a := range args {
		f.addUse(a, v)
	}
	f.append(bb, v)
	return v
}

// SetInsts replaces bb's instruction layout wholesale; used by the optimizer's dead-code sweep
// to drop the tail of a block following its terminator.
func (f *Function) SetInsts(bb BasicBlock, insts []Value) {
	bb.data().insts = insts
}

// IsReferenced reports whether any live instruction still reads v as an operand.
func (f *Function) IsReferenced(v Value) bool {
	return len(v.Data().Uses) > 0
}

// DeleteValue removes v from the DFG entirely, after unlinking it from every operand's Uses
// list so that operand can itself become eligible for deletion. Callers must have already
// ensured v is unreferenced (see IsReferenced) and removed from any block layout.
func (f *Function) DeleteValue(v Value) {
	d := v.Data()
	for _, operand := range operandsOf(d) {
		f.removeUse(operand, v)
	}
	delete(f.dfg, v.id)
}

func (f *Function) removeUse(operand, user Value) {
	if !operand.IsValid() {
		return
	}
	d := operand.Data()
	for i, u := range d.Uses {
		if u == user {
			d.Uses = append(d.Uses[:i], d.Uses[i+1:]...)
			return
		}
	}
}

// operandsOf returns the operand Values referenced by d, per its Kind.
func operandsOf(d *ValueData) []Value {
	switch d.Kind {
	case KindLoad:
		return []Value{d.Src}
	case KindStore:
		return []Value{d.Stored, d.Dst}
	case KindBinary:
		return []Value{d.Lhs, d.Rhs}
	case KindBranch:
		return []Value{d.Cond}
	case KindReturn:
		if d.HasRet {
			return []Value{d.RetVal}
		}
		return nil
	case KindCall:
		return d.Args
	default:
		return nil
	}
}

// String renders the function body in a koopa-like textual form for the "-koopa" driver mode,
// one instruction per line.
func (f *Function) String() string {
	s := fmt.Sprintf("fun @%s(%d params) -> %v {\n", f.Name, len(f.ParamNames), retTypeStr(f.HasRet))
	if f.IsDeclOnly {
		return s + "  // declared only\n}\n"
	}
	for _, bb := range f.Layout {
		s += fmt.Sprintf("%%%s:\n", bb.Name())
		for _, v := range bb.Insts() {
			s += "    " + describeValue(v) + "\n"
		}
	}
	s += "}\n"
	return s
}

func retTypeStr(hasRet bool) string {
	if hasRet {
		return "i32"
	}
	return "void"
}

func valueRef(v Value) string {
	if !v.IsValid() {
		return "<invalid>"
	}
	d := v.Data()
	if d.Kind == KindInteger {
		return fmt.Sprintf("%d", d.IntVal)
	}
	if v.fn == nil {
		return fmt.Sprintf("@%s", d.Name)
	}
	return fmt.Sprintf("%%%d", v.id)
}

func describeValue(v Value) string {
	d := v.Data()
	switch d.Kind {
	case KindInteger:
		return fmt.Sprintf("%s = integer %d", valueRef(v), d.IntVal)
	case KindFuncArgRef:
		return fmt.Sprintf("%s = func_arg_ref %d", valueRef(v), d.ArgIndex)
	case KindAlloc:
		return fmt.Sprintf("%s = alloc i32", valueRef(v))
	case KindGlobalAlloc:
		if d.IsZero {
			return fmt.Sprintf("%s = global_alloc zeroinit", valueRef(v))
		}
		return fmt.Sprintf("%s = global_alloc %d", valueRef(v), d.IntVal)
	case KindLoad:
		return fmt.Sprintf("%s = load %s", valueRef(v), valueRef(d.Src))
	case KindStore:
		return fmt.Sprintf("store %s, %s", valueRef(d.Stored), valueRef(d.Dst))
	case KindBinary:
		return fmt.Sprintf("%s = %s %s, %s", valueRef(v), d.Op, valueRef(d.Lhs), valueRef(d.Rhs))
	case KindBranch:
		return fmt.Sprintf("br %s, %%%s, %%%s", valueRef(d.Cond), d.TrueBB.Name(), d.FalseBB.Name())
	case KindJump:
		return fmt.Sprintf("jump %%%s", d.Target.Name())
	case KindReturn:
		if d.HasRet {
			return fmt.Sprintf("ret %s", valueRef(d.RetVal))
		}
		return "ret"
	case KindCall:
		argStrs := ""
		for i, a := range d.Args {
			if i > 0 {
				argStrs += ", "
			}
			argStrs += valueRef(a)
		}
		if d.Callee.HasRet {
			return fmt.Sprintf("%s = call @%s(%s)", valueRef(v), d.Callee.Name, argStrs)
		}
		return fmt.Sprintf("call @%s(%s)", d.Callee.Name, argStrs)
	default:
		return "<unknown instruction>"
	}
}
