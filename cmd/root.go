package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/illarion/diaria/internal/config"
	"github.com/illarion/diaria/internal/logging"
)

var (
	globals struct {
		keys         string
		entries      string
		password     string
		passwordFile string
		configPath   string
		verbose      bool
		debug        bool
	}

	// Logger is configured from --verbose and --debug before any command runs.
	Logger *logging.Logger

	cfg *config.Config
)

// NewRootCmd builds the diaria command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "diaria",
		Short: "Encrypted journal with sandboxed editing",
		Long: `diaria keeps a journal of encrypted entries, one file per entry.

Entries are written in your editor, which runs inside a bubblewrap sandbox,
then sealed with a public key. Adding entries never needs the passphrase;
reading them does.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&globals.keys, "keys", "k", "", "keys directory (env DIARIA_KEYS)")
	pf.StringVarP(&globals.entries, "entries", "e", "", "entries directory (env DIARIA_ENTRIES)")
	pf.StringVarP(&globals.password, "password", "p", "", "passphrase (prefer --password-file or the keyring)")
	pf.StringVar(&globals.passwordFile, "password-file", "", "read the passphrase from a file")
	pf.StringVarP(&globals.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	pf.BoolVarP(&globals.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&globals.debug, "debug", false, "enable debug output")

	root.AddCommand(
		newInitCmd(),
		newAddCmd(),
		newReadCmd(),
		newDumpCmd(),
		newLoadCmd(),
		newStatsCmd(),
		newSummarizeCmd(),
		newSyncCmd(),
		newPasswdCmd(),
		newDiffCmd(),
		newDoctorCmd(),
		newKeyringCmd(),
	)
	return root
}

// Execute runs the CLI.
func Execute(ctx context.Context, version string) error {
	return NewRootCmd(version).ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, args []string) error {
	Logger = &logging.Logger{
		Verbose: globals.verbose || globals.debug,
		Debug:   globals.debug,
	}

	path, explicit := globals.configPath, globals.configPath != ""
	if !explicit {
		path = config.DefaultPath()
	}
	c, err := config.Load(path, explicit)
	if err != nil {
		return err
	}
	c.ApplyEnv(getenv)

	if globals.keys != "" {
		c.Keys = globals.keys
	}
	if globals.entries != "" {
		c.Entries = globals.entries
	}

	cfg = c
	Logger.Debugf("config %s, keys %s, entries %s", path, cfg.Keys, cfg.Entries)
	return nil
}
