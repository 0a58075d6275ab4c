// Package cli implements the screens command-line interface: it manages
// stored screen definitions and renders, edits, and saves entities through
// them.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/screens/internal/logging"
	"github.com/mesh-intelligence/screens/internal/paths"
	"github.com/mesh-intelligence/screens/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	envFile   string
}

// state is shared by the commands of one root command.
type state struct {
	flags     rootFlags
	configDir string
	dataDir   string
	settings  settings
	log       *logrus.Logger
}

// NewRootCmd creates the top-level "screens" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	st := &state{}
	root := &cobra.Command{
		Use:   "screens",
		Short: "Metadata-driven detail views",
		Long: "screens stores screen definitions and uses them to build detail views\n" +
			"for entities: render them, edit fields, and save the result.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.setup(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&st.flags.configDir, "config-dir", "", "configuration directory (default: ./.screens or the user config dir)")
	pf.StringVar(&st.flags.dataDir, "data-dir", "", "data directory (default: <config-dir>/data)")
	pf.BoolVar(&st.flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVar(&st.flags.envFile, "env-file", ".env", "environment file loaded before configuration")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(st),
		newImportCmd(st),
		newDumpCmd(st),
		newListCmd(st),
		newFieldsCmd(st),
		newEntitiesCmd(st),
		newRenderCmd(st),
		newSetCmd(st),
		newExportCmd(st),
		newLoadCmd(st),
	)
	return root
}

// setup loads the environment file and configuration and resolves the
// directories.
func (st *state) setup(stderr io.Writer) error {
	if st.flags.envFile != "" {
		if err := godotenv.Load(st.flags.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", st.flags.envFile, err)
		}
	}
	configDir, err := paths.ResolveConfigDir(st.flags.configDir)
	if err != nil {
		return systemError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return systemError(err)
	}
	s, err := decodeSettings(v)
	if err != nil {
		return err
	}
	dataDir, err := paths.ResolveDataDir(st.flags.dataDir, s.DataDir, configDir)
	if err != nil {
		return systemError(fmt.Errorf("resolve data dir: %w", err))
	}
	log, err := logging.New(s.LogLevel, stderr)
	if err != nil {
		return err
	}

	st.configDir, st.dataDir, st.settings, st.log = configDir, dataDir, s, log
	return nil
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// systemError marks err as an environment failure rather than bad input.
func systemError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// exitCode maps an error to the process exit code: 2 for failures of the
// environment or store, 1 for everything the user can fix.
func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, types.ErrUnexpected), errors.Is(err, types.ErrStoreDetached):
		return exitSysError
	}
	return exitUserError
}
