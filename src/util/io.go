package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Writer buffers RV32 assembly text for a single basic block in a strings.Builder. Each Writer is
// purely local: backend/riscv32 creates a fresh Writer for every block it lowers, and its
// parallel codegen path stores each finished function at that function's own index, so
// asm.Program.Emit concatenates them in function order once every goroutine has returned -- an
// ordering a shared channel merge could not guarantee, since channel delivery order does not
// track function order.
type Writer struct {
	sb strings.Builder
}

// ---------------------
// ----- Functions -----
// ---------------------

// Write writes a format string to the Writer's buffer.
func (w *Writer) Write(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf(format, args...))
}

// WriteString writes a plain string to the Writer's buffer.
func (w *Writer) WriteString(s string) {
	w.sb.WriteString(s)
}

// Ins1 writes a one-line instruction using the operator and single operand.
func (w *Writer) Ins1(op, rs1 string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s\n", op, rs1))
}

// Ins2 writes a one-line instruction using the operator, destination register and single source register.
func (w *Writer) Ins2(op, rd, rs1 string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s\n", op, rd, rs1))
}

// Ins2imm writes a one-line instruction using the operator, destination register, single source
// register and signed immediate.
func (w *Writer) Ins2imm(op, rd, rs1 string, imm int) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s, %d\n", op, rd, rs1, imm))
}

// Ins3 writes a one-line instruction using the operator, destination register and two source registers.
func (w *Writer) Ins3(op, rd, rs1, rs2 string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s, %s\n", op, rd, rs1, rs2))
}

// LoadStore writes a load or store instruction of register reg with offset to the register
// pointer (usually sp).
func (w *Writer) LoadStore(op, reg string, offset int, pointer string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %d(%s)\n", op, reg, offset, pointer))
}

// Label writes a one-line label with the given name.
func (w *Writer) Label(name string) {
	w.sb.WriteString(fmt.Sprintf("%s:\n", name))
}

// String returns the buffered text accumulated so far.
func (w *Writer) String() string {
	return w.sb.String()
}

// ReadSource reads the SysY source file named by opt.Src. There is no stdin fallback: the driver
// contract is a single named input file, not an interactive pipe.
func ReadSource(opt Options) (string, error) {
	if opt.Src == "" {
		return "", fmt.Errorf("no source file given")
	}
	b, err := os.ReadFile(opt.Src)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteOutput writes s to opt.Out, or to stdout if no output path was given.
func WriteOutput(opt Options, s string) error {
	if opt.Out == "" {
		w := bufio.NewWriter(os.Stdout)
		if _, err := w.WriteString(s); err != nil {
			return err
		}
		return w.Flush()
	}
	f, err := os.Create(opt.Out)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	return w.Flush()
}
