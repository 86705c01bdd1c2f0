package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/AndreyAkinshin/modrun/internal/config"
	"github.com/AndreyAkinshin/modrun/internal/ctxlog"
	"github.com/AndreyAkinshin/modrun/internal/errors"
	"github.com/AndreyAkinshin/modrun/internal/executor"
	"github.com/AndreyAkinshin/modrun/internal/lockguard"
	"github.com/AndreyAkinshin/modrun/internal/output"
	"github.com/AndreyAkinshin/modrun/internal/project"
	"github.com/AndreyAkinshin/modrun/internal/registry"
	"github.com/AndreyAkinshin/modrun/internal/report"
	"github.com/AndreyAkinshin/modrun/internal/runner"
	"github.com/AndreyAkinshin/modrun/internal/validator"
)

// out is the shared output writer for CLI commands.
var out = output.New()

// logOutput receives diagnostic log records.
var logOutput io.Writer = os.Stderr

// Help text alignment widths for consistent formatting.
const (
	widthCommand       = 18 // "completion <shell>"
	widthFlagWithValue = 20 // "--modules-dir=<dir>"
	widthEnvVar        = 20
	widthRunFlag       = 26 // "--status-file=<file>" and friends
)

// applyVerbosityToOutput configures the output writer based on verbosity settings.
func applyVerbosityToOutput(opts *GlobalOptions) {
	out.SetQuiet(opts.Quiet)
}

// newContext returns the root context for a command: canceled on SIGINT or
// SIGTERM and carrying the diagnostic logger.
func newContext(opts *GlobalOptions) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctxlog.WithLogger(ctx, ctxlog.New(logOutput, opts.Verbose)), stop
}

// loadProject loads the project configuration and handles errors uniformly.
// Returns the project and exit code 0 on success, or nil and appropriate exit code on failure.
func loadProject(opts *GlobalOptions) (*project.Project, int) {
	proj, err := project.Load(project.Options{
		ConfigPath: opts.ConfigPath,
		ModulesDir: opts.ModulesDir,
		Manifest:   opts.Manifest,
	})
	if err != nil {
		out.ErrorPrefix("%v", err)
		return nil, errors.GetExitCode(err)
	}
	for _, w := range proj.Warnings {
		out.Warning("%s", w)
	}
	return proj, 0
}

// runFlags holds the options of the run command.
type runFlags struct {
	mode              string
	concurrency       int
	timeout           time.Duration
	dryRun            bool
	continueOnFailure *bool // nil keeps the configured value
	statusFile        string
	ids               []string
}

func parseRunFlags(args []string) (*runFlags, error) {
	f := &runFlags{}

	i := 0
	for i < len(args) {
		arg := args[i]

		if name, value, ok := valueFlag(args, i, "--mode", "--concurrency", "--timeout", "--status-file"); ok {
			if value == "" {
				return nil, fmt.Errorf("%s requires a value", name)
			}
			switch name {
			case "--mode":
				// "dry-run" is accepted as a mode for convenience.
				if value == "dry-run" {
					f.dryRun = true
				} else if err := config.ValidateMode(value); err != nil {
					return nil, fmt.Errorf("invalid --mode value %q\n  valid values: %s, %s, dry-run", value, config.ModeSequential, config.ModeParallel)
				} else {
					f.mode = value
				}
			case "--concurrency":
				n, err := strconv.Atoi(value)
				if err != nil {
					return nil, fmt.Errorf("invalid --concurrency value %q (not a number)", value)
				}
				if err := config.ValidateConcurrency(n); err != nil {
					return nil, fmt.Errorf("invalid --concurrency value: %v", err)
				}
				f.concurrency = n
			case "--timeout":
				s, err := strconv.ParseFloat(value, 64)
				if err != nil || s <= 0 {
					return nil, fmt.Errorf("invalid --timeout value %q (want seconds > 0)", value)
				}
				f.timeout = config.Seconds(s)
			case "--status-file":
				f.statusFile = value
			}
			if strings.Contains(arg, "=") {
				i++
			} else {
				i += 2
			}
			continue
		}

		switch {
		case arg == "--dry-run":
			f.dryRun = true
		case arg == "--continue-on-failure":
			f.continueOnFailure = ptr(true)
		case arg == "--no-continue-on-failure":
			f.continueOnFailure = ptr(false)
		case arg == "--":
			f.ids = append(f.ids, args[i+1:]...)
			return f, nil
		case strings.HasPrefix(arg, "-"):
			return nil, fmt.Errorf("unknown flag: %s", arg)
		default:
			f.ids = append(f.ids, arg)
		}
		i++
	}
	return f, nil
}

// request merges run flags over the project configuration, which already
// carries environment overrides.
func (f *runFlags) request(cfg *config.Config) runner.Request {
	req := runner.Request{
		IDs:               f.ids,
		Mode:              cfg.Run.Mode,
		MaxConcurrency:    cfg.Run.Concurrency,
		Timeout:           cfg.Run.TimeoutDuration(),
		ContinueOnFailure: cfg.Run.ContinueOnFailure,
		DryRun:            f.dryRun,
	}
	if f.mode != "" {
		req.Mode = f.mode
	}
	if f.concurrency != 0 {
		req.MaxConcurrency = f.concurrency
	}
	if f.timeout != 0 {
		req.Timeout = f.timeout
	}
	if f.continueOnFailure != nil {
		req.ContinueOnFailure = *f.continueOnFailure
	}
	return req
}

func ptr[T any](v T) *T {
	return &v
}

// printKnownModules follows an unknown-module failure with the ids that do exist.
func printKnownModules(err error, reg *registry.Registry) {
	if errors.Is(err, errors.KindUnknownTask) && reg.Len() > 0 {
		out.Errorln("known modules: %s", strings.Join(reg.Names(), ", "))
	}
}

// cmdRun runs modules through the coordinator.
func cmdRun(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printRunUsage()
		return 0
	}

	flags, err := parseRunFlags(args)
	if err != nil {
		out.ErrorPrefix("run: %v", err)
		return errors.ExitConfigError
	}

	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}

	req := flags.request(proj.Config)
	if flags.concurrency != 0 && req.Mode == config.ModeSequential {
		out.Warning("--concurrency has no effect in sequential mode")
	}

	ctx, stop := newContext(opts)
	defer stop()
	ctxlog.FromContext(ctx).Debug("project loaded", "project", proj.String())

	inv := &executor.ProcessInvoker{Dir: proj.Root}
	if opts.Verbose {
		inv.Stdout = os.Stderr
		inv.Stderr = os.Stderr
	}

	statusPath := flags.statusFile
	if statusPath == "" {
		statusPath = proj.StatusFilePath()
	}

	coord := runner.New(proj.Registry, inv, lockguard.New(proj.LockFilePath()))
	coord.Store = report.NewStore(statusPath)
	coord.Out = out

	r, err := coord.Run(ctx, req)
	if err != nil {
		out.ErrorPrefix("%v", err)
		printKnownModules(err, proj.Registry)
		return errors.GetExitCode(err)
	}
	if ctx.Err() != nil {
		out.Warning("interrupted")
	}
	if !r.OverallSuccess {
		return errors.ExitRuntimeError
	}
	return 0
}

// cmdList prints the registered modules.
func cmdList(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printListUsage()
		return 0
	}

	all := false
	for _, arg := range args {
		switch arg {
		case "-a", "--all":
			all = true
		default:
			out.ErrorPrefix("list: unexpected argument: %s", arg)
			return errors.ExitConfigError
		}
	}

	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}

	modules := proj.Registry.List(all)
	if len(modules) == 0 {
		out.Info("no modules found in %s", proj.Source)
		return 0
	}

	rows := make([][]string, 0, len(modules))
	for _, m := range modules {
		enabled := "yes"
		if !m.Enabled {
			enabled = "no"
		}
		rows = append(rows, []string{m.ID, enabled, m.Location, m.Description})
	}
	out.Table([]string{"ID", "ENABLED", "LOCATION", "DESCRIPTION"}, rows)
	return 0
}

// cmdCheck validates modules without running them.
func cmdCheck(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printCheckUsage()
		return 0
	}

	var ids []string
	for _, arg := range args {
		if arg == "--" {
			continue
		}
		if strings.HasPrefix(arg, "-") {
			out.ErrorPrefix("check: unknown flag: %s", arg)
			return errors.ExitConfigError
		}
		ids = append(ids, arg)
	}

	proj, exitCode := loadProject(opts)
	if proj == nil {
		return exitCode
	}

	tasks, err := validator.Validate(ids, proj.Registry)
	if err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			out.ErrorPrefix("%s", line)
		}
		printKnownModules(err, proj.Registry)
		return errors.GetExitCode(err)
	}

	out.Success("%d modules ready.", len(tasks))
	for _, d := range tasks {
		out.ModuleInfo(d.ID, d.Location)
	}
	return 0
}

// cmdStatus prints the last persisted run report.
func cmdStatus(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printStatusUsage()
		return 0
	}

	statusPath := ""
	for i := 0; i < len(args); i++ {
		if name, value, ok := valueFlag(args, i, "--status-file"); ok {
			if value == "" {
				out.ErrorPrefix("status: %s requires a value", name)
				return errors.ExitConfigError
			}
			statusPath = value
			if !strings.Contains(args[i], "=") {
				i++
			}
			continue
		}
		out.ErrorPrefix("status: unexpected argument: %s", args[i])
		return errors.ExitConfigError
	}

	if statusPath == "" {
		proj, exitCode := loadProject(opts)
		if proj == nil {
			return exitCode
		}
		statusPath = proj.StatusFilePath()

		lock := lockguard.New(proj.LockFilePath())
		if pid, err := lock.Holder(); err == nil && pid > 0 {
			out.Info("Run in progress (pid %d, lock %s)", pid, lock.Path())
		}
	}

	r, err := report.NewStore(statusPath).Load()
	if err != nil {
		if _, statErr := os.Stat(statusPath); statErr != nil {
			out.ErrorPrefix("no run status at %s", statusPath)
			return errors.ExitRuntimeError
		}
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	out.Info("Last run: %s", r.StartedAt.Local().Format(time.DateTime))
	if r.DryRun {
		out.Info("(dry run)")
	}
	for _, rec := range r.Results {
		out.TaskResult(rec.ID, rec.Status.String(), time.Duration(rec.DurationMs)*time.Millisecond, rec.Message)
	}
	runner.PrintSummary(out, r)

	if !r.OverallSuccess {
		return errors.ExitRuntimeError
	}
	return 0
}

func printRunUsage() {
	w := out

	w.HelpTitle("modrun run - run modules")

	w.HelpSection("Usage:")
	w.HelpUsage("modrun run [options] [id...]")

	w.HelpSection("Description:")
	w.Println("  Runs the named modules, or every enabled module when none is named.")
	w.Println("  Each module's result is printed as soon as it completes.")

	w.HelpSection("Options:")
	w.HelpFlag("--mode=<mode>", "sequential (default), parallel or dry-run", widthRunFlag)
	w.HelpFlag("--concurrency=<n>", "Parallel modules at a time (default: CPU count)", widthRunFlag)
	w.HelpFlag("--timeout=<seconds>", "Per-module wall-clock limit", widthRunFlag)
	w.HelpFlag("--dry-run", "Print the plan without running anything", widthRunFlag)
	w.HelpFlag("--continue-on-failure", "Sequential mode: keep going after a failure", widthRunFlag)
	w.HelpFlag("--no-continue-on-failure", "Stop at the first failure despite the config", widthRunFlag)
	w.HelpFlag("--status-file=<file>", "Write the run report here", widthRunFlag)
	w.HelpFlag("-h, --help", "Show this help", widthRunFlag)

	w.HelpSection("Exit Codes:")
	w.HelpCommand("0", "All modules succeeded", 2)
	w.HelpCommand("1", "At least one module failed, timed out or was missing", 2)
	w.HelpCommand("2", "Invalid configuration, flags or module ids", 2)
	w.HelpCommand("3", "Environment error (lock file unusable)", 2)
	w.HelpCommand("4", "Another run is in progress", 2)

	w.HelpSection("Examples:")
	w.HelpExample("modrun run cpu memory io", "Run three modules in order")
	w.HelpExample("modrun run --mode=parallel --timeout=60", "Run all enabled modules concurrently")
	w.Println("")
}

func printListUsage() {
	w := out

	w.HelpTitle("modrun list - list registered modules")

	w.HelpSection("Usage:")
	w.HelpUsage("modrun list [--all]")

	w.HelpSection("Options:")
	w.HelpFlag("-a, --all", "Include disabled modules", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)
	w.Println("")
}

func printCheckUsage() {
	w := out

	w.HelpTitle("modrun check - validate modules without running them")

	w.HelpSection("Usage:")
	w.HelpUsage("modrun check [id...]")

	w.HelpSection("Description:")
	w.Println("  Resolves the named modules (all enabled modules when none is named)")
	w.Println("  and verifies each one can be executed. Every problem is reported.")
	w.Println("")
}

func printStatusUsage() {
	w := out

	w.HelpTitle("modrun status - show the last run report")

	w.HelpSection("Usage:")
	w.HelpUsage("modrun status [--status-file=<file>]")

	w.HelpSection("Description:")
	w.Println("  Prints the report persisted by the last run. Exits 0 when that run")
	w.Println("  succeeded and 1 otherwise, so it can back a health check.")
	w.Println("")
}
