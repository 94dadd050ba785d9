package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/henri123lemoine/stashy/internal/app"
	"github.com/henri123lemoine/stashy/internal/config"
	"github.com/henri123lemoine/stashy/internal/debug"
	"github.com/henri123lemoine/stashy/internal/exec"
	"github.com/henri123lemoine/stashy/internal/git"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// exitCodeError carries a non-zero exit status whose message was already printed.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

type options struct {
	dir        string
	configPath string
	debugLog   string
	noMouse    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "stashy",
		Short: "Browse, preview and apply git stashes",
		Long: `stashy - a terminal UI for git stash

Lists the stashes of the current repository with a diff preview, and checks
whether the selected stash applies cleanly before you apply or pop it.

Keys:
  j/k, up/down    move
  d               drop the selected stash
  a               apply (exits afterwards if the stash has conflicts)
  p               pop (only when the stash applies cleanly)
  /               filter
  ?               toggle the command bar
  q, esc          quit

Configuration is read from ~/.config/stashy/config.toml.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.SetVersionTemplate("stashy version {{.Version}}\n")
	cmd.CompletionOptions.HiddenDefaultCmd = true

	flags := cmd.Flags()
	flags.StringVarP(&opts.dir, "dir", "C", "", "run as if stashy was started in `dir`")
	flags.StringVar(&opts.configPath, "config", "", "config file (default "+config.ConfigPath()+")")
	flags.StringVar(&opts.debugLog, "debug", "", "write a debug log to `file`")
	flags.BoolVar(&opts.noMouse, "no-mouse", false, "disable mouse support")

	return cmd
}

// execute runs the root command and returns the process exit code.
func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	debug.Close()
	if err == nil {
		return 0
	}

	var code exitCodeError
	if errors.As(err, &code) {
		return int(code)
	}

	fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
	if errors.Is(err, git.ErrNotRepository) {
		fmt.Fprintln(os.Stderr, "stashy must be run from within a git repository.")
	}
	return 1
}

func run(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logPath := opts.debugLog
	if logPath == "" {
		logPath = cfg.Debug.LogFile
	}
	if logPath != "" {
		if err := debug.Enable(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "%s could not open debug log: %v\n", yellow("Warning:"), err)
		}
	}
	for _, w := range cfg.Validate() {
		debug.Log("config: %s", w)
	}
	cfg.Normalize()
	if opts.noMouse {
		cfg.UI.Mouse = false
	}

	done := debug.Timed("startup")
	repo, err := git.Open(ctx, opts.dir)
	if err != nil {
		return err
	}

	entries, err := repo.ListStashes(ctx)
	if err != nil {
		return fmt.Errorf("listing stashes: %w", err)
	}
	done()

	if len(entries) == 0 {
		fmt.Println("No stashes in current git repo")
		return nil
	}

	// Cancelled when the UI exits, which stops the watcher.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	checker := exec.GitChecker{Dir: repo.Root, Timeout: cfg.CheckTimeout()}
	model := app.New(ctx, cfg, repo, checker, entries).
		WithRepoName(filepath.Base(repo.Root))

	if cfg.Watch.Enabled {
		changes, err := repo.WatchStash(ctx)
		if err != nil {
			debug.Log("stash watcher disabled: %v", err)
		} else {
			model = model.WithStashWatch(changes)
		}
	}

	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.UI.Mouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}

	finalModel, err := tea.NewProgram(model, programOpts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrInterrupted) || errors.Is(err, tea.ErrProgramKilled) {
			debug.Log("program stopped: %v", err)
			return nil
		}
		return err
	}

	m, ok := finalModel.(app.Model)
	if !ok {
		return nil
	}
	if msg := m.FatalError(); msg != "" {
		fmt.Fprintln(os.Stderr, red(msg))
	}
	if code := m.ExitCode(); code != 0 {
		return exitCodeError(code)
	}
	return nil
}

func loadConfig(opts *options) (*config.Config, error) {
	if opts.configPath != "" {
		cfg, err := config.LoadFromPath(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
