// Package lir implements a linear, SSA-style IR: functions owning a data-flow graph of values
// plus an ordered layout of basic blocks, with opaque handle-based value identity so that the
// graph of uses forms a DAG the optimizer (package ir, optimise.go) can sweep without walking raw
// pointers. The builder API exposes Program, Function, and BasicBlock types with Create* methods
// that return the new value's handle, backed by a handle/DFG-map pair instead of a direct
// *Value pointer graph.
package lir

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind tags the variant of a Value's instruction data.
type Kind int

const (
	KindInteger Kind = iota
	KindFuncArgRef
	KindAlloc
	KindGlobalAlloc
	KindLoad
	KindStore
	KindBinary
	KindBranch
	KindJump
	KindReturn
	KindCall
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFuncArgRef:
		return "func_arg_ref"
	case KindAlloc:
		return "alloc"
	case KindGlobalAlloc:
		return "global_alloc"
	case KindLoad:
		return "load"
	case KindStore:
		return "store"
	case KindBinary:
		return "binary"
	case KindBranch:
		return "branch"
	case KindJump:
		return "jump"
	case KindReturn:
		return "return"
	case KindCall:
		return "call"
	default:
		return "unknown"
	}
}

// IsTerminator reports whether a value of this Kind ends a basic block.
func (k Kind) IsTerminator() bool {
	return k == KindBranch || k == KindJump || k == KindReturn
}

// BinOp enumerates the binary operators produced during front-end lowering.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpLt
	OpGt
	OpLe
	OpGe
	OpEq
	OpNe
)

var binOpNames = map[BinOp]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
	OpAnd: "and", OpOr: "or", OpLt: "lt", OpGt: "gt", OpLe: "le", OpGe: "ge",
	OpEq: "eq", OpNe: "ne",
}

func (op BinOp) String() string { return binOpNames[op] }

// Value is an opaque handle to a unit of IR data. Global values carry fn == nil and resolve
// against Program.globals; function-local values resolve against fn.dfg. Handles are small,
// copyable identifiers, never raw pointers into mutable storage.
type Value struct {
	fn *Function
	id int
}

// Invalid is the zero Value; no real value ever compares equal to it.
var Invalid = Value{}

// IsValid reports whether v names a real value.
func (v Value) IsValid() bool { return v.fn != nil || v.id != 0 }

// Data resolves the handle to its backing ValueData. Panics if the value is dangling, which
// can only happen on a compiler bug, not a user error.
func (v Value) Data() *ValueData {
	if v.fn == nil {
		d, ok := globalSpace[v.id]
		if !ok {
			panic(fmt.Sprintf("dangling global value handle %d", v.id))
		}
		return d
	}
	d, ok := v.fn.dfg[v.id]
	if !ok {
		panic(fmt.Sprintf("dangling value handle %d in function %s", v.id, v.fn.Name))
	}
	return d
}

// Kind is a convenience accessor equivalent to v.Data().Kind.
func (v Value) Kind() Kind { return v.Data().Kind }

// BasicBlock is an opaque handle to a basic block owned by a Function.
type BasicBlock struct {
	fn *Function
	id int
}

// IsValid reports whether bb names a real block.
func (bb BasicBlock) IsValid() bool { return bb.fn != nil }

func (bb BasicBlock) data() *blockData { return bb.fn.blocks[bb.id] }

// Name returns the block's unique textual label.
func (bb BasicBlock) Name() string { return bb.data().name }

// Insts returns the block's instructions in layout order.
func (bb BasicBlock) Insts() []Value { return bb.data().insts }

// Terminator returns the block's terminating instruction, or the zero Value if the block's last
// instruction is not a terminator: a block still under construction, or one the front end left
// open (a non-void function whose control flow falls off the end; the optimizer closes such
// blocks only in main).
func (bb BasicBlock) Terminator() Value {
	insts := bb.data().insts
	if len(insts) == 0 {
		return Invalid
	}
	last := insts[len(insts)-1]
	if last.Kind().IsTerminator() {
		return last
	}
	return Invalid
}

// ValueData is the tagged variant carried by a Value handle.
type ValueData struct {
	Kind Kind

	// KindInteger
	IntVal int32

	// KindFuncArgRef
	ArgIndex int

	// KindGlobalAlloc: IntVal holds the initial literal unless IsZero (then emitted as `.zero`).
	IsZero bool

	// KindLoad: Src is the pointer operand being read.
	Src Value

	// KindStore: Stored is the value written into the Dst pointer operand.
	Stored Value
	Dst    Value

	// KindBinary
	Op       BinOp
	Lhs, Rhs Value

	// KindBranch
	Cond            Value
	TrueBB, FalseBB BasicBlock

	// KindJump
	Target BasicBlock

	// KindReturn
	RetVal  Value
	HasRet  bool

	// KindCall
	Callee *Function
	Args   []Value

	// Name: for KindGlobalAlloc, the variable's textual label.
	Name string

	// Uses lists every instruction Value that reads this Value as an operand. Maintained by
	// the builder methods in function.go and consumed by the dead-code sweep's liveness test.
	Uses []Value
}

type blockData struct {
	name  string
	insts []Value
}

// globalSpace backs every Program's global Values. A fresh Program resets it via NewProgram,
// so only one Program is meant to be under construction per process at a time -- true for this
// compiler's single-threaded front end.
var globalSpace = map[int]*ValueData{}
var globalSeq int
