// Package cli implements the timeline command-line interface: clip
// management, keyframe editing, evaluation and clipboard transfer over the
// local store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/timeline/internal/logging"
	"github.com/mesh-intelligence/timeline/internal/paths"
	"github.com/mesh-intelligence/timeline/internal/session"
	"github.com/mesh-intelligence/timeline/internal/sqlite"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userErrors are the sentinels caused by bad input rather than a broken
// environment.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidName,
	types.ErrInvalidFilter,
	types.ErrInvalidLength,
	types.ErrInvalidCurveType,
	types.ErrInvalidRefKind,
	types.ErrNotEnoughKeyframes,
	types.ErrSnapshotMismatch,
	types.ErrTargetNotFound,
}

// fail wraps err with the exit code its cause calls for.
func fail(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, u := range userErrors {
		if errors.Is(err, u) {
			return &exitError{code: exitUserError, err: err}
		}
	}
	return &exitError{code: exitSysError, err: err}
}

// usage marks err as a user error regardless of its cause.
func usage(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

// exitCode maps an error returned by the root command to an exit code.
// Errors raised by cobra itself (unknown command, bad flag, wrong argument
// count) are user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// app holds global flag values and the configuration resolved for one run.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool

	cfg    types.Config
	stderr io.Writer
}

// NewRootCmd creates the "timeline" command with its global flags and
// subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{stderr: os.Stderr}
	root := &cobra.Command{
		Use:           "timeline",
		Short:         "Keyframe animation clips on the command line",
		Long:          "Timeline stores animation clips, edits their keyframes, evaluates them\nand moves keyframes between clips through a clipboard.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stderr = cmd.ErrOrStderr()
			return a.loadConfig()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir/timeline)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: platform data dir/timeline)")
	pf.BoolVar(&a.jsonMode, "json", false, "output as JSON")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newClipCmd(a),
		newKeyCmd(a),
		newEvalCmd(a),
		newFrameCmd(a),
		newWatchCmd(a),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "timeline:", err)
	}
	return exitCode(err)
}

// loadConfig resolves the config directory, reads config.yaml and resolves
// the data directory with it.
func (a *app) loadConfig() error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fail(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return fail(err)
	}
	cfg.DataDir, err = paths.ResolveDataDir(a.dataDir, cfg.DataDir)
	if err != nil {
		return fail(fmt.Errorf("resolve data dir: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return usage("config %s: %w", paths.ConfigFile(configDir), err)
	}
	if err := logging.Install(cfg.Log, a.stderr); err != nil {
		return fail(err)
	}
	a.configDir = configDir
	a.cfg = cfg
	return nil
}

// openSession attaches the store and opens a session on it. The caller
// closes the session.
func (a *app) openSession() (*session.Session, error) {
	store := sqlite.NewBackend()
	if err := store.Attach(a.cfg); err != nil {
		return nil, fail(fmt.Errorf("attach store: %w", err))
	}
	s, err := session.Open(store, a.cfg.Animation)
	if err != nil {
		store.Detach()
		return nil, fail(err)
	}
	return s, nil
}

// withSession runs fn on a fresh session and closes it afterwards.
func (a *app) withSession(fn func(*session.Session) error) error {
	s, err := a.openSession()
	if err != nil {
		return err
	}
	runErr := fn(s)
	if err := s.Close(); err != nil && runErr == nil {
		runErr = fail(fmt.Errorf("close store: %w", err))
	}
	return fail(runErr)
}
