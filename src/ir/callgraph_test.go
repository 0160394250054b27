package ir

import "testing"

func TestBuildCallGraphArityAndLeaf(t *testing.T) {
	cu := mustParse(t, `
int helper(int a, int b, int c) { return a + b + c; }
int leaf(int a) { return a; }
int main() {
  int x = helper(1, 2, 3);
  int y = leaf(x);
  return x + y;
}
`)
	prog, err := Generate(cu)
	if err != nil {
		t.Fatalf("Generate returned error: %s", err)
	}
	cg := BuildCallGraph(prog)

	if !cg.IsLeaf("helper") {
		t.Error("expected helper to be a leaf (it makes no calls)")
	}
	if !cg.IsLeaf("leaf") {
		t.Error("expected leaf to be a leaf")
	}
	if cg.IsLeaf("main") {
		t.Error("expected main not to be a leaf (it calls helper and leaf)")
	}

	if cg.MaxArgs["main"] != 3 {
		t.Errorf("expected main's max call arity to be 3 (the helper call), got %d", cg.MaxArgs["main"])
	}
	if !cg.Callees["main"]["helper"] || !cg.Callees["main"]["leaf"] {
		t.Errorf("expected main's callee set to include helper and leaf, got %+v", cg.Callees["main"])
	}
}

func TestBuildCallGraphManyArgsFeedsFrameSizing(t *testing.T) {
	cu := mustParse(t, `
int ten(int a, int b, int c, int d, int e, int f, int g, int h, int i, int j) { return a; }
int main() {
  return ten(1, 2, 3, 4, 5, 6, 7, 8, 9, 10);
}
`)
	prog, err := Generate(cu)
	if err != nil {
		t.Fatalf("Generate returned error: %s", err)
	}
	cg := BuildCallGraph(prog)
	if cg.MaxArgs["main"] != 10 {
		t.Errorf("expected main's max call arity to be 10, got %d", cg.MaxArgs["main"])
	}
}
