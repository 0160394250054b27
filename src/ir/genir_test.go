package ir

import (
	"testing"

	"sysyrv/src/frontend"
	"sysyrv/src/ir/lir"
)

func mustParse(t *testing.T, src string) *frontend.CompUnit {
	t.Helper()
	cu, err := frontend.Parse(src)
	if err != nil {
		t.Fatalf("Parse returned error: %s", err)
	}
	return cu
}

func TestConstEvalArithmetic(t *testing.T) {
	root := NewScope()
	if err := root.Bind("N", Entry{Kind: EntryConst, ConstVal: 5}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	expr := &frontend.BinaryExpr{
		Op:  "+",
		Lhs: &frontend.NumberExpr{Value: 1},
		Rhs: &frontend.LValExpr{Name: "N"},
	}
	v, err := constEval(root, expr)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v != 6 {
		t.Errorf("expected 1+N==6, got %d", v)
	}
}

func TestConstEvalDivZero(t *testing.T) {
	root := NewScope()
	expr := &frontend.BinaryExpr{Op: "/", Lhs: &frontend.NumberExpr{Value: 1}, Rhs: &frontend.NumberExpr{Value: 0}}
	if _, err := constEval(root, expr); err == nil {
		t.Fatal("expected ConstEvalDivZeroError")
	} else if _, ok := err.(*ConstEvalDivZeroError); !ok {
		t.Errorf("expected *ConstEvalDivZeroError, got %T", err)
	}

	mod := &frontend.BinaryExpr{Op: "%", Lhs: &frontend.NumberExpr{Value: 1}, Rhs: &frontend.NumberExpr{Value: 0}}
	if _, err := constEval(root, mod); err == nil {
		t.Fatal("expected ConstEvalDivZeroError for modulus by zero")
	}
}

func TestConstEvalNonConstBinding(t *testing.T) {
	root := NewScope()
	if err := root.Bind("v", Entry{Kind: EntryVar}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	_, err := constEval(root, &frontend.LValExpr{Name: "v"})
	if err == nil {
		t.Fatal("expected BindingNonConstExprError referencing a non-const symbol")
	}
	if _, ok := err.(*BindingNonConstExprError); !ok {
		t.Errorf("expected *BindingNonConstExprError, got %T", err)
	}
}

// TestGenerateMainReturn checks the simplest possible program lowers to one function whose
// entry block ends in a Return.
func TestGenerateMainReturn(t *testing.T) {
	cu := mustParse(t, "int main() { return 0; }")
	prog, err := Generate(cu)
	if err != nil {
		t.Fatalf("Generate returned error: %s", err)
	}
	main, ok := prog.Funcs["main"]
	if !ok {
		t.Fatal("expected a main function in the program")
	}
	if len(main.Layout) != 1 {
		t.Fatalf("expected exactly one basic block, got %d", len(main.Layout))
	}
	term := main.Layout[0].Terminator()
	if !term.IsValid() || term.Kind() != lir.KindReturn {
		t.Fatalf("expected the entry block to end in a Return, got %+v", term)
	}
}

// TestGenerateLogicalPureOperand checks that a short-circuit expression with no calls on either
// side lowers without introducing any new basic blocks (the pure-operand strategy).
func TestGenerateLogicalPureOperand(t *testing.T) {
	cu := mustParse(t, "int main() { return 1 && 0; }")
	prog, err := Generate(cu)
	if err != nil {
		t.Fatalf("Generate returned error: %s", err)
	}
	main := prog.Funcs["main"]
	if len(main.Layout) != 1 {
		t.Fatalf("expected the pure-operand && strategy to stay in one block, got %d blocks", len(main.Layout))
	}
}

// TestGenerateLogicalSideEffecting checks that a short-circuit expression whose right operand is
// a call introduces the branching (entry/rhs/merge) the side-effecting strategy requires.
func TestGenerateLogicalSideEffecting(t *testing.T) {
	cu := mustParse(t, `
int zero() { return 0; }
int main() { return 1 || zero(); }
`)
	prog, err := Generate(cu)
	if err != nil {
		t.Fatalf("Generate returned error: %s", err)
	}
	main := prog.Funcs["main"]
	if len(main.Layout) <= 1 {
		t.Fatalf("expected the side-effecting || strategy to branch into extra blocks, got %d", len(main.Layout))
	}
}

func TestGenerateBreakOutsideLoop(t *testing.T) {
	cu := mustParse(t, "int main() { break; return 0; }")
	_, err := Generate(cu)
	if err == nil {
		t.Fatal("expected BreakOutsideOfLoopError")
	}
	if _, ok := err.(*BreakOutsideOfLoopError); !ok {
		t.Errorf("expected *BreakOutsideOfLoopError, got %T", err)
	}
}

func TestGenerateContinueOutsideLoop(t *testing.T) {
	cu := mustParse(t, "int main() { continue; return 0; }")
	_, err := Generate(cu)
	if err == nil {
		t.Fatal("expected ContinueOutsideOfLoopError")
	}
	if _, ok := err.(*ContinueOutsideOfLoopError); !ok {
		t.Errorf("expected *ContinueOutsideOfLoopError, got %T", err)
	}
}

func TestGenerateInvalidAssignToConst(t *testing.T) {
	cu := mustParse(t, "int main() { const int x = 1; x = 2; return x; }")
	_, err := Generate(cu)
	if err == nil {
		t.Fatal("expected InvalidAssignmentToConstError")
	}
	if _, ok := err.(*InvalidAssignmentToConstError); !ok {
		t.Errorf("expected *InvalidAssignmentToConstError, got %T", err)
	}
}

func TestGenerateMultipleDefinitions(t *testing.T) {
	cu := mustParse(t, "int main() { int x; int x; return 0; }")
	_, err := Generate(cu)
	if err == nil {
		t.Fatal("expected MultipleDefinitionsError")
	}
	if _, ok := err.(*MultipleDefinitionsError); !ok {
		t.Errorf("expected *MultipleDefinitionsError, got %T", err)
	}
}

func TestGenerateWhileLoopStructure(t *testing.T) {
	cu := mustParse(t, `
int main() {
  int i = 0;
  while (i < 10) {
    if (i == 5) {
      break;
    }
    i = i + 1;
  }
  return i;
}
`)
	prog, err := Generate(cu)
	if err != nil {
		t.Fatalf("Generate returned error: %s", err)
	}
	main := prog.Funcs["main"]
	// entry, loop_entry, loop_body, loop_end, plus the if's then/merge blocks.
	if len(main.Layout) < 6 {
		t.Fatalf("expected at least 6 basic blocks for a while-with-if-break, got %d", len(main.Layout))
	}
}
