// Package cli provides command-line interface functionality for modrun.
package cli

import (
	"fmt"
	"strings"

	"github.com/AndreyAkinshin/modrun/internal/config"
	"github.com/AndreyAkinshin/modrun/internal/errors"
	"github.com/AndreyAkinshin/modrun/internal/output"
)

// Version is set at build time.
var Version = "dev"

// wantsHelp returns true if args contain -h or --help before any -- separator.
// Arguments after -- are module ids, so help flags there are ignored.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
		if arg == "--" {
			return false
		}
	}
	return false
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 0
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return 0
	case "--version", "version":
		out.Println("modrun %s", Version)
		return 0
	}

	opts, remaining, err := parseGlobalFlags(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	// Re-extract command after flag parsing
	if len(remaining) == 0 {
		printUsage()
		return 0
	}
	cmd := remaining[0]
	cmdArgs := remaining[1:]

	switch cmd {
	case "run":
		return cmdRun(cmdArgs, opts)
	case "list":
		return cmdList(cmdArgs, opts)
	case "check":
		return cmdCheck(cmdArgs, opts)
	case "status":
		return cmdStatus(cmdArgs, opts)
	case "completion":
		return cmdCompletion(cmdArgs)
	case "help":
		printUsage()
		return 0
	case "version":
		out.Println("modrun %s", Version)
		return 0
	default:
		out.ErrorPrefix("unknown command %q (see 'modrun help')", cmd)
		return errors.ExitConfigError
	}
}

// GlobalOptions holds parsed global flags.
type GlobalOptions struct {
	Quiet      bool
	Verbose    bool
	ConfigPath string
	ModulesDir string
	Manifest   string
}

// parseGlobalFlags manually parses global flags from arguments.
//
// Global flags may appear anywhere in the argument list, so the stdlib flag
// package (which stops at the first non-flag) does not fit. Everything after
// -- is kept verbatim.
func parseGlobalFlags(args []string) (*GlobalOptions, []string, error) {
	opts := &GlobalOptions{}
	var remaining []string

	i := 0
	for i < len(args) {
		arg := args[i]

		if name, value, ok := valueFlag(args, i, "--config", "--modules-dir", "--manifest"); ok {
			if value == "" {
				return nil, nil, fmt.Errorf("%s requires a value", name)
			}
			switch name {
			case "--config":
				opts.ConfigPath = value
			case "--modules-dir":
				opts.ModulesDir = value
			case "--manifest":
				opts.Manifest = value
			}
			if strings.Contains(arg, "=") {
				i++
			} else {
				i += 2
			}
			continue
		}

		switch arg {
		case "-q", "--quiet":
			opts.Quiet = true
		case "-v", "--verbose":
			opts.Verbose = true
		case "--":
			remaining = append(remaining, args[i:]...)
			i = len(args)
			continue
		default:
			remaining = append(remaining, arg)
		}
		i++
	}

	if err := validateGlobalOptions(opts); err != nil {
		return nil, nil, err
	}

	applyVerbosityToOutput(opts)

	return opts, remaining, nil
}

// valueFlag matches args[i] against flags taking a value, in either
// "--name value" or "--name=value" form.
func valueFlag(args []string, i int, names ...string) (name, value string, ok bool) {
	arg := args[i]
	for _, n := range names {
		if arg == n {
			if i+1 < len(args) {
				return n, args[i+1], true
			}
			return n, "", true
		}
		if v, found := strings.CutPrefix(arg, n+"="); found {
			return n, v, true
		}
	}
	return "", "", false
}

// validateGlobalOptions checks that global options are valid.
func validateGlobalOptions(opts *GlobalOptions) error {
	if opts.Quiet && opts.Verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	if opts.ModulesDir != "" && opts.Manifest != "" {
		return fmt.Errorf("--modules-dir and --manifest are mutually exclusive")
	}
	return nil
}

func printUsage() {
	w := out

	w.HelpTitle("modrun - run optimization modules sequentially or in parallel")

	w.HelpSection("Usage:")
	w.HelpUsage("modrun [flags] <command> [args]")

	w.HelpSection("Commands:")
	w.HelpCommand("run [id...]", "Run modules (all enabled modules when no id is given)", widthCommand)
	w.HelpCommand("list", "List registered modules", widthCommand)
	w.HelpCommand("check [id...]", "Validate modules without running them", widthCommand)
	w.HelpCommand("status", "Show the report of the last run", widthCommand)
	w.HelpCommand("completion <shell>", "Generate shell completion (bash, zsh, fish)", widthCommand)
	w.HelpCommand("version", "Show version information", widthCommand)

	printGlobalFlags(w)

	w.HelpSection("Examples:")
	w.HelpExample("modrun run", "Run all enabled modules sequentially")
	w.HelpExample("modrun run --mode parallel --concurrency 4", "Run up to four modules at a time")
	w.HelpExample("modrun run --timeout 30 cpu io", "Run two modules with a 30s limit each")
	w.HelpExample("modrun run --dry-run", "Show what would run")
	w.Println("")
}

func printGlobalFlags(w *output.Writer) {
	w.HelpSection("Global Flags:")
	w.HelpFlag("-q, --quiet", "Only report failures", widthFlagWithValue)
	w.HelpFlag("-v, --verbose", "Debug logging and module output on stderr", widthFlagWithValue)
	w.HelpFlag("--config=<file>", "Use this config.json instead of searching", widthFlagWithValue)
	w.HelpFlag("--modules-dir=<dir>", "Discover modules in this directory", widthFlagWithValue)
	w.HelpFlag("--manifest=<file>", "Load modules from this YAML manifest", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)
	w.HelpFlag("--version", "Show version", widthFlagWithValue)

	w.HelpSection("Environment:")
	w.HelpEnvVar(config.EnvParallel+"=<n>", "Default parallel concurrency (1-256)", widthEnvVar)
	w.HelpEnvVar(config.EnvTimeout+"=<sec>", "Default per-module timeout in seconds", widthEnvVar)
}
