package ir

import (
	"fmt"

	"sysyrv/src/ir/lir"
)

// EntryKind tags which of the four binding shapes the symbol table stores.
type EntryKind int

const (
	EntryConst EntryKind = iota
	EntryVar
	EntryGlobal
	EntryFunc
)

// Entry is a single symbol table binding. Exactly the fields matching Kind are meaningful.
type Entry struct {
	Kind EntryKind

	ConstVal int32 // EntryConst

	Handle lir.Value // EntryVar / EntryGlobal: the Alloc/GlobalAlloc value backing the name.

	Func       *lir.Function // EntryFunc
	FuncHasRet bool
}

// MultipleDefinitionsError reports a name rebound within the same scope.
type MultipleDefinitionsError struct {
	Name string
}

func (e *MultipleDefinitionsError) Error() string {
	return fmt.Sprintf("multiple definitions for identifier %q", e.Name)
}

// DefinitionNotFoundError reports a lookup that reached the root scope without a binding.
type DefinitionNotFoundError struct {
	Name string
}

func (e *DefinitionNotFoundError) Error() string {
	return fmt.Sprintf("definition not found for identifier %q", e.Name)
}

// Scope is one nested lexical level of the symbol table: a flat map of
// bindings introduced in this block, chained to its lexically enclosing Scope. Functions live in
// the outermost (global) Scope only; SysY has no nested function definitions.
type Scope struct {
	entries map[string]Entry
	parent  *Scope
}

// NewScope creates a root scope with no parent (used once, for the whole program).
func NewScope() *Scope {
	return &Scope{entries: make(map[string]Entry)}
}

// Push opens a new nested scope below s, e.g. on entering a block or a function body.
func (s *Scope) Push() *Scope {
	return &Scope{entries: make(map[string]Entry), parent: s}
}

// Bind introduces name in this scope. It returns a *MultipleDefinitionsError if name is already
// bound in this exact scope (shadowing an outer scope's binding is allowed and is not an error).
func (s *Scope) Bind(name string, e Entry) error {
	if _, ok := s.entries[name]; ok {
		return &MultipleDefinitionsError{Name: name}
	}
	s.entries[name] = e
	return nil
}

// Lookup searches this scope and its ancestors, innermost first, returning the first binding
// found. ok is false if no enclosing scope binds name.
func (s *Scope) Lookup(name string) (Entry, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if e, ok := sc.entries[name]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// MustLookup is Lookup wrapped in an *DefinitionNotFoundError, for call sites that always want
// an error value rather than a boolean (keeps genir.go's error plumbing uniform).
func (s *Scope) MustLookup(name string) (Entry, error) {
	e, ok := s.Lookup(name)
	if !ok {
		return Entry{}, &DefinitionNotFoundError{Name: name}
	}
	return e, nil
}
