package util

import (
	"log/slog"
	"os"
)

// defaultLogger is the package-level diagnostics logger; nil until InitLog is called, in which
// case every Log* helper below is a silent no-op.
var defaultLogger *slog.Logger

// InitLog configures the package-level logger from the driver's parsed Options: -vb selects
// debug level; diagnostics are text-formatted to stderr so they never interleave with
// -koopa/-riscv output on stdout.
func InitLog(opt Options) {
	level := slog.LevelInfo
	if opt.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	defaultLogger = slog.New(handler)
}

// LogPhase logs the start of a compilation stage (lex, parse, genir, optimise, ...).
func LogPhase(phase string) {
	if defaultLogger != nil {
		defaultLogger.Info("starting compilation phase", "phase", phase)
	}
}

// LogPhaseComplete logs the completion of a compilation stage.
func LogPhaseComplete(phase string) {
	if defaultLogger != nil {
		defaultLogger.Info("completed compilation phase", "phase", phase)
	}
}

// LogFunctionCodegen logs per-function back-end statistics; called once per function regardless
// of whether the sequential or parallel (-t>1) back-end path ran it.
func LogFunctionCodegen(fn string, blocks, frameBytes int) {
	if defaultLogger != nil {
		defaultLogger.Debug("function codegen complete", "function", fn, "blocks", blocks, "frame_bytes", frameBytes)
	}
}

// LogOptimise logs the dead-code sweep's result for one function.
func LogOptimise(fn string, removed int) {
	if defaultLogger != nil {
		defaultLogger.Debug("dead-code sweep complete", "function", fn, "removed", removed)
	}
}
