package riscv32

// RegPool is a naive register allocator: a fixed pool of seven temporaries (t0..t6), handed out
// on demand and returned when a value's last use has been lowered. It does not track liveness
// across instructions the way a graph-coloring allocator would -- the stack-per-value discipline
// in lower.go keeps the number of simultaneously live temporaries small enough that this always
// has a register available in the programs this compiler's front end can produce.
type RegPool struct {
	avail []string
}

// tempRegs is the full temporary register file, in acquisition order.
var tempRegs = []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6"}

// ArgRegs is the eight integer argument/return registers, per the RV32 calling convention.
var ArgRegs = []string{"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7"}

// NewRegPool returns a pool with the full temporary register file available, used fresh for
// every basic block rather than reset only at function boundaries -- the narrower and therefore
// always-safe scope, since no value's storage assignment ever depends on a temporary surviving
// past the block that produced it.
func NewRegPool() *RegPool {
	p := &RegPool{avail: make([]string, len(tempRegs))}
	copy(p.avail, tempRegs)
	return p
}

// Acquire removes and returns an available temporary. Exhaustion is an implementation limit this
// naive allocator does not handle; it panics rather than silently miscompiling.
func (p *RegPool) Acquire() string {
	if len(p.avail) == 0 {
		panic("register pool exhausted: no free temporary")
	}
	r := p.avail[0]
	p.avail = p.avail[1:]
	return r
}

// Release returns r to the pool iff it is one of the seven temporaries; any other register name
// (argument registers, x0, sp, ra) is silently ignored, guarding callers that release a
// Register-storage value without checking what kind of register it was handed.
func (p *RegPool) Release(r string) {
	for _, t := range tempRegs {
		if t == r {
			p.avail = append(p.avail, r)
			return
		}
	}
}
