package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options holds the parsed command line configuration for the compiler driver.
type Options struct {
	Src     string // Path to source file.
	Out     string // Path to output file; empty means stdout.
	Threads int    // Back-end parallelism; 0 or 1 runs the sequential path.
	Verbose bool   // Set true to log compiler diagnostics at debug level.
	Koopa   bool   // Output mode: print the IR program and exit.
	Riscv   bool   // Output mode: emit RV32 assembly.
}

// ---------------------
// ----- Constants -----
// ---------------------

const maxThreads = 64
const appVersion = "sysyrv compiler 1.0"

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses command line arguments into Options: exactly one of -koopa or -riscv selects
// the output mode; -o sets the output path; -t and -vb are the supplemental
// concurrency/diagnostics flags.
func ParseArgs() (Options, error) {
	opt := Options{}
	args := os.Args[1:]
	for i1 := 0; i1 < len(args); i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-koopa":
			opt.Koopa = true
		case "-riscv":
			opt.Riscv = true
		case "-o", "-t":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if strings.HasPrefix(args[i1+1], "-") {
				return opt, fmt.Errorf("expected argument, got new flag %s", args[i1+1])
			}
			switch args[i1] {
			case "-o":
				opt.Out = args[i1+1]
			case "-t":
				t, err := strconv.Atoi(args[i1+1])
				if err != nil {
					return opt, fmt.Errorf("expected integer thread count, got: %s", args[i1+1])
				}
				if t < 1 || t > maxThreads {
					return opt, fmt.Errorf("thread count must be integer in range [1, %d]", maxThreads)
				}
				opt.Threads = t
			}
			i1++
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-vb":
			opt.Verbose = true
		default:
			if strings.HasPrefix(args[i1], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i1])
			}
			opt.Src = args[i1]
		}
	}
	if opt.Threads == 0 {
		opt.Threads = 1
	}
	if !opt.Koopa && !opt.Riscv {
		return opt, fmt.Errorf("no output mode given: expected -koopa or -riscv")
	}
	if opt.Koopa && opt.Riscv {
		return opt, fmt.Errorf("expected exactly one output mode, got both -koopa and -riscv")
	}
	if opt.Src == "" {
		return opt, fmt.Errorf("no source file given")
	}
	return opt, nil
}

// printHelp prints a helpful usage message to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits the application.")
	_, _ = fmt.Fprintln(w, "--h, --help")
	_, _ = fmt.Fprintln(w, "-koopa\tOutput the IR program in textual form and exit.")
	_, _ = fmt.Fprintln(w, "-riscv\tEmit RV32 assembly.")
	_, _ = fmt.Fprintln(w, "-o\tPath and name of the output file. Defaults to stdout.")
	_, _ = fmt.Fprintf(w, "-t\tNumber of back-end threads to run in parallel. Must be in range [1, %d].\n", maxThreads)
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints application version and exits the application.")
	_, _ = fmt.Fprintln(w, "--v, --version")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: log compiler diagnostics at debug level.")
	_ = w.Flush()
}
