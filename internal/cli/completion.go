package cli

import (
	"fmt"
	"strings"
)

// cmdCompletion generates shell completion scripts.
func cmdCompletion(args []string) int {
	shell := ""
	alias := ""

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			printCompletionUsage()
			return 0
		case strings.HasPrefix(arg, "--alias="):
			alias = strings.TrimPrefix(arg, "--alias=")
		case arg == "--alias":
			out.ErrorPrefix("completion: --alias requires a value (--alias=<name>)")
			return 2
		case strings.HasPrefix(arg, "-"):
			out.ErrorPrefix("completion: unknown flag: %s", arg)
			printCompletionUsage()
			return 2
		default:
			if shell != "" {
				out.ErrorPrefix("completion: unexpected argument: %s", arg)
				return 2
			}
			shell = arg
		}
	}

	if shell == "" {
		out.ErrorPrefix("completion: shell required (bash, zsh, fish)")
		printCompletionUsage()
		return 2
	}

	cmdName := "modrun"
	if alias != "" {
		cmdName = alias
	}

	switch shell {
	case "bash":
		out.Print("%s", generateBashCompletion(cmdName))
	case "zsh":
		out.Print("%s", generateZshCompletion(cmdName))
	case "fish":
		out.Print("%s", generateFishCompletion(cmdName))
	default:
		out.ErrorPrefix("completion: unsupported shell %q (use bash, zsh, or fish)", shell)
		return 2
	}

	return 0
}

// printCompletionUsage prints the help text for the completion command.
func printCompletionUsage() {
	w := out

	w.HelpTitle("modrun completion - generate shell completion scripts")

	w.HelpSection("Usage:")
	w.HelpUsage("modrun completion <shell> [--alias=<name>]")

	w.HelpSection("Arguments:")
	w.HelpFlag("<shell>", "Shell type: bash, zsh, or fish", 10)

	w.HelpSection("Options:")
	w.HelpFlag("--alias=<name>", "Generate completion for command alias", 14)
	w.HelpFlag("-h, --help", "Show this help", 14)

	w.HelpSection("Installation:")
	w.Println("  Bash:  eval \"$(modrun completion bash)\"")
	w.Println("  Zsh:   eval \"$(modrun completion zsh)\"")
	w.Println("  Fish:  modrun completion fish | source")
	w.Println("")
}

// commandDescriptions lists the built-in commands in help order.
var commandDescriptions = [][2]string{
	{"run", "Run modules"},
	{"list", "List registered modules"},
	{"check", "Validate modules without running them"},
	{"status", "Show the report of the last run"},
	{"completion", "Generate shell completion"},
	{"version", "Show version information"},
	{"help", "Show help"},
}

func builtinCommands() []string {
	names := make([]string, 0, len(commandDescriptions))
	for _, c := range commandDescriptions {
		names = append(names, c[0])
	}
	return names
}

// globalFlags returns the global CLI flags.
func globalFlags() []string {
	return []string{"--quiet", "--verbose", "--config", "--modules-dir", "--manifest", "--help", "--version"}
}

// runFlagNames returns the flags of the run command.
func runFlagNames() []string {
	return []string{"--mode", "--concurrency", "--timeout", "--dry-run", "--continue-on-failure", "--no-continue-on-failure", "--status-file"}
}

// moduleIDsCommand prints module ids, one per line, skipping the table header.
func moduleIDsCommand(cmdName string) string {
	return fmt.Sprintf("%s list --all 2>/dev/null | awk 'NR>2 {print $1}'", cmdName)
}

func generateBashCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_") + "_completions"

	return fmt.Sprintf(`# modrun bash completion
# Add to ~/.bashrc: eval "$(modrun completion bash)"

%s() {
    local cur prev words cword
    _init_completion || return

    local commands="%s"
    local flags="%s"
    local run_flags="%s"

    case "${prev}" in
        %s)
            COMPREPLY=($(compgen -W "${commands} ${flags}" -- "${cur}"))
            return
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "${cur}"))
            return
            ;;
        --mode)
            COMPREPLY=($(compgen -W "sequential parallel dry-run" -- "${cur}"))
            return
            ;;
        --config|--manifest|--status-file|--modules-dir)
            _filedir
            return
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=($(compgen -W "${flags} ${run_flags}" -- "${cur}"))
        return
    fi

    case "${words[1]}" in
        run|check)
            COMPREPLY=($(compgen -W "$(%s)" -- "${cur}"))
            ;;
    esac
}

complete -F %s %s
`, funcName, strings.Join(builtinCommands(), " "), strings.Join(globalFlags(), " "),
		strings.Join(runFlagNames(), " "), cmdName, moduleIDsCommand(cmdName), funcName, cmdName)
}

func generateZshCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_")

	var commands strings.Builder
	for _, c := range commandDescriptions {
		fmt.Fprintf(&commands, "        '%s:%s'\n", c[0], c[1])
	}

	return fmt.Sprintf(`#compdef %s
# modrun zsh completion
# Add to ~/.zshrc: eval "$(modrun completion zsh)"

%s() {
    local -a commands modules
    commands=(
%s    )

    if (( CURRENT == 2 )); then
        _describe -t commands 'command' commands
        return
    fi

    case "${words[2]}" in
        run|check)
            modules=(${(f)"$(%s)"})
            _arguments -s \
                '--mode=[Execution mode]:mode:(sequential parallel dry-run)' \
                '--concurrency=[Parallel modules at a time]:n:' \
                '--timeout=[Per-module timeout in seconds]:seconds:' \
                '--dry-run[Print the plan only]' \
                '--continue-on-failure[Keep going after a failure]' \
                '--no-continue-on-failure[Stop at the first failure]' \
                '--status-file=[Report file]:file:_files' \
                '*:module:($modules)'
            ;;
        list)
            _arguments '--all[Include disabled modules]'
            ;;
        status)
            _arguments '--status-file=[Report file]:file:_files'
            ;;
        completion)
            _values 'shell' bash zsh fish
            ;;
    esac
}

compdef %s %s
`, cmdName, funcName, commands.String(), moduleIDsCommand(cmdName), funcName, cmdName)
}

func generateFishCompletion(cmdName string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `# modrun fish completion
# Add to config: modrun completion fish | source

complete -c %s -f

`, cmdName)

	for _, c := range commandDescriptions {
		fmt.Fprintf(&sb, "complete -c %s -n '__fish_use_subcommand' -a '%s' -d '%s'\n", cmdName, c[0], c[1])
	}

	sb.WriteString("\n# Global flags\n")
	fmt.Fprintf(&sb, "complete -c %s -s q -l quiet -d 'Only report failures'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -s v -l verbose -d 'Debug logging'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -l config -r -d 'Config file'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -l modules-dir -r -d 'Module directory'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -l manifest -r -d 'Module manifest'\n", cmdName)

	sb.WriteString("\n# run flags\n")
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from run' -l mode -xa 'sequential parallel dry-run'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from run' -l concurrency -x\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from run' -l timeout -x\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from run' -l dry-run\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from run' -l continue-on-failure\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from run' -l no-continue-on-failure\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from run status' -l status-file -r\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from list' -l all\n", cmdName)

	sb.WriteString("\n# completion shells\n")
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'\n", cmdName)

	sb.WriteString("\n# Module ids\n")
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from run check' -a '(%s)' -d 'Module'\n", cmdName, moduleIDsCommand(cmdName))

	return sb.String()
}
