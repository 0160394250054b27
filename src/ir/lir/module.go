package lir

import "fmt"

// Program is the top level IR unit produced by genir.go: a set of global variable allocations
// plus a set of functions (library declarations and user definitions), in source declaration
// order.
type Program struct {
	GlobalOrder []Value
	Funcs       map[string]*Function
	FuncOrder   []string
}

// NewProgram resets the package-level global value space and returns an empty Program. Only one
// Program is ever under construction at a time (this compiler's front end is single-threaded),
// so resetting the shared space here is safe and keeps Value handles small integers instead of
// content-hashed identities.
func NewProgram() *Program {
	globalSpace = map[int]*ValueData{}
	globalSeq = 0
	return &Program{Funcs: make(map[string]*Function)}
}

// CreateGlobalZero declares a zero-initialised global (SysY has no global initialiser syntax
// beyond literal ints, but the IR model supports both).
func (p *Program) CreateGlobalZero(name string) Value {
	globalSeq++
	id := globalSeq
	globalSpace[id] = &ValueData{Kind: KindGlobalAlloc, IsZero: true, Name: name}
	v := Value{id: id}
	p.GlobalOrder = append(p.GlobalOrder, v)
	return v
}

// CreateGlobalInit declares a global initialised to a constant int32. The literal is stored
// inline on the global's own ValueData (IntVal) rather than as a separate DFG entry: globals are
// never read as operands of other globals, so there is nothing else to point Init at.
func (p *Program) CreateGlobalInit(name string, init int32) Value {
	globalSeq++
	id := globalSeq
	globalSpace[id] = &ValueData{Kind: KindGlobalAlloc, Name: name, IntVal: init}
	v := Value{id: id}
	p.GlobalOrder = append(p.GlobalOrder, v)
	return v
}

// DeclareFunction registers a library function (getint, putint, ...): callable, but with no
// body of its own to lower.
func (p *Program) DeclareFunction(name string, arity int, hasRet bool) *Function {
	params := make([]string, arity)
	f := NewFunction(name, params, hasRet)
	f.IsDeclOnly = true
	p.Funcs[name] = f
	p.FuncOrder = append(p.FuncOrder, name)
	return f
}

// DefineFunction registers a user function shell ready for genir.go to populate with blocks.
func (p *Program) DefineFunction(name string, params []string, hasRet bool) *Function {
	f := NewFunction(name, params, hasRet)
	p.Funcs[name] = f
	p.FuncOrder = append(p.FuncOrder, name)
	return f
}

// String renders the whole program in koopa-like textual form for the "-koopa" driver mode.
func (p *Program) String() string {
	s := ""
	for _, gv := range p.GlobalOrder {
		d := gv.Data()
		if d.IsZero {
			s += fmt.Sprintf("global @%s = alloc i32, zeroinit\n", d.Name)
		} else {
			s += fmt.Sprintf("global @%s = alloc i32, %d\n", d.Name, d.IntVal)
		}
	}
	if len(p.GlobalOrder) > 0 {
		s += "\n"
	}
	for _, name := range p.FuncOrder {
		s += p.Funcs[name].String()
	}
	return s
}
