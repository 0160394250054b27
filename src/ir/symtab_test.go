package ir

import "testing"

func TestScopeBindAndLookup(t *testing.T) {
	root := NewScope()
	if err := root.Bind("x", Entry{Kind: EntryConst, ConstVal: 1}); err != nil {
		t.Fatalf("unexpected error binding x: %s", err)
	}

	if err := root.Bind("x", Entry{Kind: EntryConst, ConstVal: 2}); err == nil {
		t.Fatal("expected MultipleDefinitionsError rebinding x in the same scope")
	} else if _, ok := err.(*MultipleDefinitionsError); !ok {
		t.Errorf("expected *MultipleDefinitionsError, got %T", err)
	}

	if _, err := root.MustLookup("undefined"); err == nil {
		t.Fatal("expected DefinitionNotFoundError for an unbound name")
	} else if _, ok := err.(*DefinitionNotFoundError); !ok {
		t.Errorf("expected *DefinitionNotFoundError, got %T", err)
	}
}

func TestScopeShadowing(t *testing.T) {
	root := NewScope()
	if err := root.Bind("x", Entry{Kind: EntryConst, ConstVal: 1}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	inner := root.Push()
	// Shadowing an outer binding from a nested scope must be allowed.
	if err := inner.Bind("x", Entry{Kind: EntryConst, ConstVal: 2}); err != nil {
		t.Fatalf("shadowing an outer binding should not error, got %s", err)
	}

	e, err := inner.MustLookup("x")
	if err != nil {
		t.Fatalf("unexpected lookup error: %s", err)
	}
	if e.ConstVal != 2 {
		t.Errorf("expected the inner binding (2) to shadow the outer one, got %d", e.ConstVal)
	}

	// The outer scope's own binding must remain untouched.
	outerEntry, err := root.MustLookup("x")
	if err != nil {
		t.Fatalf("unexpected lookup error on outer scope: %s", err)
	}
	if outerEntry.ConstVal != 1 {
		t.Errorf("expected the outer binding to still be 1, got %d", outerEntry.ConstVal)
	}
}
