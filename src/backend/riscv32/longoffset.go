package riscv32

import "sysyrv/src/util"

// immFits reports whether imm fits RV32's 12-bit signed immediate field.
func immFits(imm int) bool {
	return imm >= -2048 && imm < 2048
}

// generateLW emits a load of reg from offset(base), materializing the offset through reg itself
// when it overflows the 12-bit immediate field. reg is free to use as scratch for the address
// computation because it is about to be overwritten by the load result anyway.
func generateLW(w *util.Writer, reg string, off int, base string) {
	if immFits(off) {
		w.LoadStore("lw", reg, off, base)
		return
	}
	w.Write("\tli\t%s, %d\n", reg, off)
	w.Ins3("add", reg, reg, base)
	w.LoadStore("lw", reg, 0, reg)
}

// generateSW emits a store of reg to offset(base). Unlike generateLW, reg holds the value being
// written and cannot be clobbered, so an address temp is borrowed from pool for the oversized
// case and released before returning.
func generateSW(w *util.Writer, pool *RegPool, reg string, off int, base string) {
	if immFits(off) {
		w.LoadStore("sw", reg, off, base)
		return
	}
	addr := pool.Acquire()
	w.Write("\tli\t%s, %d\n", addr, off)
	w.Ins3("add", addr, addr, base)
	w.LoadStore("sw", reg, 0, addr)
	pool.Release(addr)
}

// generateAddi emits `addi rd, rs, imm`, materializing imm through a borrowed temp and an `add`
// when it overflows the 12-bit immediate field. Used by the prologue/epilogue's stack pointer
// adjustment when the aligned frame exceeds 2047 bytes.
func generateAddi(w *util.Writer, pool *RegPool, rd, rs string, imm int) {
	if immFits(imm) {
		w.Ins2imm("addi", rd, rs, imm)
		return
	}
	temp := pool.Acquire()
	w.Write("\tli\t%s, %d\n", temp, imm)
	w.Ins3("add", rd, rs, temp)
	pool.Release(temp)
}
