package riscv32

// StorageKind tags where a value's result lives once lowered.
type StorageKind int

const (
	StorageImmediate StorageKind = iota
	StorageRegister
	StorageStack
	StorageGlobal
)

// Storage records the binding lowering assigns to one IR value.
type Storage struct {
	Kind  StorageKind
	Imm   int32  // StorageImmediate
	Reg   string // StorageRegister: an argument register (a0..a7); never a temporary.
	Off   int    // StorageStack: byte offset from sp.
	Label string // StorageGlobal: the variable's assembler label.
}
