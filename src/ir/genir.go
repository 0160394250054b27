// genir.go implements front-end IR generation: the syntax tree produced by package frontend is
// walked with a threaded environment (symbol table + name generator + loop-control stack) to
// produce a lir.Program. This is the largest single stage of the compiler, a straightforward
// tree-walking lowering pass over SysY's grammar.
package ir

import (
	"sysyrv/src/frontend"
	"sysyrv/src/ir/lir"
	"sysyrv/src/util"
)

// libraryFuncs lists the eight SysY runtime functions every compilation unit can call without
// a declaration of its own.
var libraryFuncs = []struct {
	name   string
	arity  int
	hasRet bool
}{
	{"getint", 0, true},
	{"getch", 0, true},
	{"getarray", 1, true},
	{"putint", 1, false},
	{"putch", 1, false},
	{"putarray", 2, false},
	{"starttime", 0, false},
	{"stoptime", 0, false},
}

// genCtx threads the per-function state through statement/expression lowering: the function
// being built, the block currently being appended to, the active lexical scope, the shared name
// generator, and the break/continue target stack (one (entry, end) pair per enclosing loop).
type genCtx struct {
	prog   *lir.Program
	fn     *lir.Function
	bb     lir.BasicBlock
	scope  *Scope
	names  *NameGen
	loops  *util.Stack // of *loopTargets
}

type loopTargets struct {
	entry lir.BasicBlock
	end   lir.BasicBlock
}

// terminated reports whether ctx.bb already ends in a terminator, meaning further appends to it
// would be dead code (left to the optimizer's sweep to remove, but lowering itself should avoid
// appending past an already-closed block where practical).
func (ctx *genCtx) terminated() bool {
	return ctx.bb.Terminator().IsValid()
}

// Generate lowers a parsed compilation unit into a lir.Program.
func Generate(cu *frontend.CompUnit) (*lir.Program, error) {
	prog := lir.NewProgram()
	root := NewScope()
	names := NewNameGen()

	for _, lf := range libraryFuncs {
		f := prog.DeclareFunction(lf.name, lf.arity, lf.hasRet)
		if err := root.Bind(lf.name, Entry{Kind: EntryFunc, Func: f, FuncHasRet: lf.hasRet}); err != nil {
			return nil, err
		}
	}

	for _, d := range cu.Decls {
		if err := genGlobalDecl(prog, root, d); err != nil {
			return nil, err
		}
	}

	// Function signatures are bound before any body is lowered, so forward references and
	// recursive calls resolve regardless of source order.
	funcs := make([]*lir.Function, len(cu.Funcs))
	for i, fd := range cu.Funcs {
		params := make([]string, len(fd.Params))
		for j, p := range fd.Params {
			params[j] = p.Name
		}
		hasRet := fd.RetType == "int"
		f := prog.DefineFunction(fd.Name, params, hasRet)
		funcs[i] = f
		if err := root.Bind(fd.Name, Entry{Kind: EntryFunc, Func: f, FuncHasRet: hasRet}); err != nil {
			return nil, err
		}
	}

	for i, fd := range cu.Funcs {
		if err := genFunction(prog, root, names, funcs[i], fd); err != nil {
			return nil, err
		}
	}

	return prog, nil
}

func genGlobalDecl(prog *lir.Program, root *Scope, d *frontend.Decl) error {
	if d.IsConst {
		v, err := constEval(root, d.Init)
		if err != nil {
			return err
		}
		return root.Bind(d.Name, Entry{Kind: EntryConst, ConstVal: v})
	}
	var handle lir.Value
	if d.Init != nil {
		v, err := constEval(root, d.Init)
		if err != nil {
			return err
		}
		handle = prog.CreateGlobalInit(d.Name, v)
	} else {
		handle = prog.CreateGlobalZero(d.Name)
	}
	return root.Bind(d.Name, Entry{Kind: EntryGlobal, Handle: handle})
}

// genFunction lowers one function body, given its already-registered signature.
func genFunction(prog *lir.Program, root *Scope, names *NameGen, f *lir.Function, fd *frontend.FuncDef) error {
	entry := f.CreateBlock(names.Generate("entry"))
	ctx := &genCtx{prog: prog, fn: f, bb: entry, scope: root.Push(), names: names, loops: &util.Stack{}}

	for i, p := range fd.Params {
		arg := f.CreateFuncArgRef(i)
		slot := f.CreateAlloc(ctx.bb)
		f.CreateStore(ctx.bb, arg, slot)
		if err := ctx.scope.Bind(p.Name, Entry{Kind: EntryVar, Handle: slot}); err != nil {
			return err
		}
	}

	if err := lowerBlockInto(ctx, fd.Body); err != nil {
		return err
	}

	// Only a void function gets a synthesized terminator here; a non-void function whose
	// control flow can fall off the end is left non-terminated for the optimizer's dead-code
	// pass to handle (it only patches this for `main`).
	if !f.HasRet && !ctx.terminated() {
		f.CreateReturn(ctx.bb, lir.Invalid, false)
	}
	return nil
}

// lowerBlockInto lowers block's items into ctx's current (possibly already-nested) scope,
// pushing one further nested scope for the block's own declarations.
func lowerBlockInto(ctx *genCtx, block *frontend.Block) error {
	inner := &genCtx{prog: ctx.prog, fn: ctx.fn, bb: ctx.bb, scope: ctx.scope.Push(), names: ctx.names, loops: ctx.loops}
	for _, item := range block.Items {
		switch it := item.(type) {
		case *frontend.Decl:
			if err := genLocalDecl(inner, it); err != nil {
				return err
			}
		case frontend.Stmt:
			if err := lowerStmt(inner, it); err != nil {
				return err
			}
		}
	}
	ctx.bb = inner.bb
	return nil
}

func genLocalDecl(ctx *genCtx, d *frontend.Decl) error {
	if d.IsConst {
		v, err := constEval(ctx.scope, d.Init)
		if err != nil {
			return err
		}
		return ctx.scope.Bind(d.Name, Entry{Kind: EntryConst, ConstVal: v})
	}
	slot := ctx.fn.CreateAlloc(ctx.bb)
	if d.Init != nil {
		v, err := lowerExpr(ctx, d.Init)
		if err != nil {
			return err
		}
		ctx.fn.CreateStore(ctx.bb, v, slot)
	}
	return ctx.scope.Bind(d.Name, Entry{Kind: EntryVar, Handle: slot})
}

// lowerStmt lowers one statement into ctx's current block.
func lowerStmt(ctx *genCtx, stmt frontend.Stmt) error {
	if ctx.terminated() {
		// Dead code; still must be well-formed so later passes have something to sweep, but
		// since it cannot affect execution, skip lowering it entirely.
		return nil
	}
	switch s := stmt.(type) {
	case *frontend.AssignStmt:
		return lowerAssign(ctx, s)
	case *frontend.ExprStmt:
		_, err := lowerExpr(ctx, s.Expr)
		return err
	case *frontend.EmptyStmt:
		return nil
	case *frontend.BlockStmt:
		return lowerBlockInto(ctx, s.Block)
	case *frontend.IfStmt:
		return lowerIf(ctx, s)
	case *frontend.WhileStmt:
		return lowerWhile(ctx, s)
	case *frontend.BreakStmt:
		return lowerBreak(ctx)
	case *frontend.ContinueStmt:
		return lowerContinue(ctx)
	case *frontend.ReturnStmt:
		return lowerReturn(ctx, s)
	default:
		panic("unhandled statement kind")
	}
}

func lowerAssign(ctx *genCtx, s *frontend.AssignStmt) error {
	e, err := ctx.scope.MustLookup(s.LVal)
	if err != nil {
		return err
	}
	if e.Kind == EntryConst || e.Kind == EntryFunc {
		return &InvalidAssignmentToConstError{Name: s.LVal}
	}
	v, err := lowerExpr(ctx, s.Expr)
	if err != nil {
		return err
	}
	ctx.fn.CreateStore(ctx.bb, v, e.Handle)
	return nil
}

func lowerReturn(ctx *genCtx, s *frontend.ReturnStmt) error {
	if s.Expr == nil {
		ctx.fn.CreateReturn(ctx.bb, lir.Invalid, false)
		return nil
	}
	v, err := lowerExpr(ctx, s.Expr)
	if err != nil {
		return err
	}
	ctx.fn.CreateReturn(ctx.bb, v, true)
	return nil
}

func lowerIf(ctx *genCtx, s *frontend.IfStmt) error {
	cond, err := lowerExpr(ctx, s.Cond)
	if err != nil {
		return err
	}
	if s.Else == nil {
		names := ctx.names.GenerateGroup([]string{"then", "merge"})
		thenBB := ctx.fn.CreateBlock(names[0])
		mergeBB := ctx.fn.CreateBlock(names[1])

		ctx.fn.CreateBranch(ctx.bb, cond, thenBB, mergeBB)
		thenCtx := childAt(ctx, thenBB)
		if err := lowerStmt(thenCtx, s.Then); err != nil {
			return err
		}
		if !thenCtx.terminated() {
			ctx.fn.CreateJump(thenCtx.bb, mergeBB)
		}
		ctx.bb = mergeBB
		return nil
	}

	names := ctx.names.GenerateGroup([]string{"then", "else", "merge"})
	thenBB := ctx.fn.CreateBlock(names[0])
	elseBB := ctx.fn.CreateBlock(names[1])
	mergeBB := ctx.fn.CreateBlock(names[2])
	ctx.fn.CreateBranch(ctx.bb, cond, thenBB, elseBB)

	thenCtx := childAt(ctx, thenBB)
	if err := lowerStmt(thenCtx, s.Then); err != nil {
		return err
	}
	if !thenCtx.terminated() {
		ctx.fn.CreateJump(thenCtx.bb, mergeBB)
	}

	elseCtx := childAt(ctx, elseBB)
	if err := lowerStmt(elseCtx, s.Else); err != nil {
		return err
	}
	if !elseCtx.terminated() {
		ctx.fn.CreateJump(elseCtx.bb, mergeBB)
	}

	ctx.bb = mergeBB
	return nil
}

func lowerWhile(ctx *genCtx, s *frontend.WhileStmt) error {
	names := ctx.names.GenerateGroup([]string{"loop_entry", "loop_body", "loop_end"})
	entryBB := ctx.fn.CreateBlock(names[0])
	bodyBB := ctx.fn.CreateBlock(names[1])
	endBB := ctx.fn.CreateBlock(names[2])

	ctx.fn.CreateJump(ctx.bb, entryBB)

	entryCtx := childAt(ctx, entryBB)
	cond, err := lowerExpr(entryCtx, s.Cond)
	if err != nil {
		return err
	}
	entryCtx.fn.CreateBranch(entryCtx.bb, cond, bodyBB, endBB)

	ctx.loops.Push(&loopTargets{entry: entryBB, end: endBB})
	bodyCtx := childAt(ctx, bodyBB)
	if err := lowerStmt(bodyCtx, s.Body); err != nil {
		ctx.loops.Pop()
		return err
	}
	ctx.loops.Pop()
	if !bodyCtx.terminated() {
		ctx.fn.CreateJump(bodyCtx.bb, entryBB)
	}

	ctx.bb = endBB
	return nil
}

func lowerBreak(ctx *genCtx) error {
	top := ctx.loops.Peek()
	if top == nil {
		return &BreakOutsideOfLoopError{}
	}
	lt := top.(*loopTargets)
	ctx.fn.CreateJump(ctx.bb, lt.end)
	return nil
}

func lowerContinue(ctx *genCtx) error {
	top := ctx.loops.Peek()
	if top == nil {
		return &ContinueOutsideOfLoopError{}
	}
	lt := top.(*loopTargets)
	ctx.fn.CreateJump(ctx.bb, lt.entry)
	return nil
}

// childAt returns a genCtx sharing ctx's scope/names/loops but positioned at bb; used for the
// branches of if/while where the nested statement may itself open further nested scopes.
func childAt(ctx *genCtx, bb lir.BasicBlock) *genCtx {
	return &genCtx{prog: ctx.prog, fn: ctx.fn, bb: bb, scope: ctx.scope.Push(), names: ctx.names, loops: ctx.loops}
}

// ----------------------------
// ----- Expression lowering --
// ----------------------------

var binOps = map[string]lir.BinOp{
	"+": lir.OpAdd, "-": lir.OpSub, "*": lir.OpMul, "/": lir.OpDiv, "%": lir.OpMod,
	"<": lir.OpLt, ">": lir.OpGt, "<=": lir.OpLe, ">=": lir.OpGe, "==": lir.OpEq, "!=": lir.OpNe,
}

func lowerExpr(ctx *genCtx, expr frontend.Expr) (lir.Value, error) {
	switch e := expr.(type) {
	case *frontend.NumberExpr:
		return ctx.fn.CreateInteger(e.Value), nil
	case *frontend.LValExpr:
		entry, err := ctx.scope.MustLookup(e.Name)
		if err != nil {
			return lir.Invalid, err
		}
		switch entry.Kind {
		case EntryConst:
			return ctx.fn.CreateInteger(entry.ConstVal), nil
		case EntryVar, EntryGlobal:
			return ctx.fn.CreateLoad(ctx.bb, entry.Handle), nil
		default:
			return lir.Invalid, &InvalidFunctionCallError{Name: e.Name}
		}
	case *frontend.UnaryExpr:
		return lowerUnary(ctx, e)
	case *frontend.BinaryExpr:
		return lowerBinary(ctx, e)
	case *frontend.CallExpr:
		return lowerCall(ctx, e)
	default:
		panic("unhandled expression kind")
	}
}

func lowerUnary(ctx *genCtx, e *frontend.UnaryExpr) (lir.Value, error) {
	v, err := lowerExpr(ctx, e.Operand)
	if err != nil {
		return lir.Invalid, err
	}
	switch e.Op {
	case "+":
		return v, nil
	case "-":
		zero := ctx.fn.CreateInteger(0)
		return ctx.fn.CreateBinary(ctx.bb, lir.OpSub, zero, v), nil
	case "!":
		zero := ctx.fn.CreateInteger(0)
		return ctx.fn.CreateBinary(ctx.bb, lir.OpEq, v, zero), nil
	default:
		panic("unhandled unary operator " + e.Op)
	}
}

func lowerBinary(ctx *genCtx, e *frontend.BinaryExpr) (lir.Value, error) {
	if e.Op == "&&" || e.Op == "||" {
		return lowerLogical(ctx, e)
	}
	lhs, err := lowerExpr(ctx, e.Lhs)
	if err != nil {
		return lir.Invalid, err
	}
	rhs, err := lowerExpr(ctx, e.Rhs)
	if err != nil {
		return lir.Invalid, err
	}
	op, ok := binOps[e.Op]
	if !ok {
		panic("unhandled binary operator " + e.Op)
	}
	return ctx.fn.CreateBinary(ctx.bb, op, lhs, rhs), nil
}

// containsCall reports whether expr (transitively) evaluates a function call, the only
// side-effecting construct SysY's expression grammar admits; lowerLogical uses this to pick
// between the pure-operand and side-effecting short-circuit strategies.
func containsCall(expr frontend.Expr) bool {
	switch e := expr.(type) {
	case *frontend.CallExpr:
		return true
	case *frontend.UnaryExpr:
		return containsCall(e.Operand)
	case *frontend.BinaryExpr:
		return containsCall(e.Lhs) || containsCall(e.Rhs)
	default:
		return false
	}
}

// normalize reduces v to 0/1 via `v != 0`.
func normalize(ctx *genCtx, v lir.Value) lir.Value {
	zero := ctx.fn.CreateInteger(0)
	return ctx.fn.CreateBinary(ctx.bb, lir.OpNe, v, zero)
}

func lowerLogical(ctx *genCtx, e *frontend.BinaryExpr) (lir.Value, error) {
	if !containsCall(e.Lhs) && !containsCall(e.Rhs) {
		lhs, err := lowerExpr(ctx, e.Lhs)
		if err != nil {
			return lir.Invalid, err
		}
		rhs, err := lowerExpr(ctx, e.Rhs)
		if err != nil {
			return lir.Invalid, err
		}
		lhsN := normalize(ctx, lhs)
		rhsN := normalize(ctx, rhs)
		if e.Op == "&&" {
			return ctx.fn.CreateBinary(ctx.bb, lir.OpAnd, lhsN, rhsN), nil
		}
		combined := ctx.fn.CreateBinary(ctx.bb, lir.OpOr, lhsN, rhsN)
		return normalize(ctx, combined), nil
	}

	slot := ctx.fn.CreateAlloc(ctx.bb)
	var initVal int32
	if e.Op == "||" {
		initVal = 1
	}
	ctx.fn.CreateStore(ctx.bb, ctx.fn.CreateInteger(initVal), slot)

	lhs, err := lowerExpr(ctx, e.Lhs)
	if err != nil {
		return lir.Invalid, err
	}

	names := ctx.names.GenerateGroup([]string{"logic_rhs", "logic_merge"})
	secondBB := ctx.fn.CreateBlock(names[0])
	mergeBB := ctx.fn.CreateBlock(names[1])

	if e.Op == "&&" {
		lhsNe := normalize(ctx, lhs)
		ctx.fn.CreateBranch(ctx.bb, lhsNe, secondBB, mergeBB)
	} else {
		lhsEq := ctx.fn.CreateBinary(ctx.bb, lir.OpEq, lhs, ctx.fn.CreateInteger(0))
		ctx.fn.CreateBranch(ctx.bb, lhsEq, secondBB, mergeBB)
	}

	secondCtx := childAt(ctx, secondBB)
	rhs, err := lowerExpr(secondCtx, e.Rhs)
	if err != nil {
		return lir.Invalid, err
	}
	rhsN := normalize(secondCtx, rhs)
	secondCtx.fn.CreateStore(secondCtx.bb, rhsN, slot)
	if !secondCtx.terminated() {
		secondCtx.fn.CreateJump(secondCtx.bb, mergeBB)
	}

	ctx.bb = mergeBB
	return ctx.fn.CreateLoad(ctx.bb, slot), nil
}

func lowerCall(ctx *genCtx, e *frontend.CallExpr) (lir.Value, error) {
	entry, err := ctx.scope.MustLookup(e.Callee)
	if err != nil {
		return lir.Invalid, err
	}
	if entry.Kind != EntryFunc {
		return lir.Invalid, &InvalidFunctionCallError{Name: e.Callee}
	}
	args := make([]lir.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := lowerExpr(ctx, a)
		if err != nil {
			return lir.Invalid, err
		}
		args[i] = v
	}
	return ctx.fn.CreateCall(ctx.bb, entry.Func, args), nil
}

// constEval is the total function over constant expressions: numeric literals, Const symbol
// references, unary +/-/!, and binary arithmetic/comparison/logical operators over
// const-evaluable subexpressions.
func constEval(scope *Scope, expr frontend.Expr) (int32, error) {
	switch e := expr.(type) {
	case *frontend.NumberExpr:
		return e.Value, nil
	case *frontend.LValExpr:
		entry, err := scope.MustLookup(e.Name)
		if err != nil {
			return 0, err
		}
		if entry.Kind != EntryConst {
			return 0, &BindingNonConstExprError{Name: e.Name}
		}
		return entry.ConstVal, nil
	case *frontend.UnaryExpr:
		v, err := constEval(scope, e.Operand)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case "+":
			return v, nil
		case "-":
			return -v, nil
		case "!":
			if v == 0 {
				return 1, nil
			}
			return 0, nil
		default:
			panic("unhandled unary operator " + e.Op)
		}
	case *frontend.BinaryExpr:
		l, err := constEval(scope, e.Lhs)
		if err != nil {
			return 0, err
		}
		r, err := constEval(scope, e.Rhs)
		if err != nil {
			return 0, err
		}
		return constEvalBinary(e.Op, l, r)
	default:
		return 0, &BindingNonConstExprError{Name: "<complex expression>"}
	}
}

func constEvalBinary(op string, l, r int32) (int32, error) {
	b2i := func(b bool) int32 {
		if b {
			return 1
		}
		return 0
	}
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, &ConstEvalDivZeroError{}
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, &ConstEvalDivZeroError{}
		}
		return l % r, nil
	case "<":
		return b2i(l < r), nil
	case ">":
		return b2i(l > r), nil
	case "<=":
		return b2i(l <= r), nil
	case ">=":
		return b2i(l >= r), nil
	case "==":
		return b2i(l == r), nil
	case "!=":
		return b2i(l != r), nil
	case "&&":
		return b2i(l != 0 && r != 0), nil
	case "||":
		return b2i(l != 0 || r != 0), nil
	default:
		panic("unhandled binary operator " + op)
	}
}
