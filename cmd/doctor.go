package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/illarion/diaria/internal/config"
	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/git"
	"github.com/illarion/diaria/internal/keyring"
	"github.com/illarion/diaria/internal/sandbox"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check keys, sandbox and git setup",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			Doctor()
		},
	}
}

var (
	okMark   = color.New(color.FgGreen).Sprint("ok:")
	warnMark = color.New(color.FgYellow).Sprint("warning:")
	failMark = color.New(color.FgRed).Sprint("error:")
)

// Doctor prints a summary of the environment
func Doctor() {
	j := openJournal(nil)

	configPath := globals.configPath
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	fmt.Printf("Config:  %s\n", configPath)
	fmt.Printf("Keys:    %s\n", cfg.Keys)
	fmt.Printf("Entries: %s\n", cfg.Entries)
	fmt.Printf("Editor:  %s\n\n", cfg.Editor)

	fmt.Println("Keys:")
	_, err := j.Keys().LoadPublicKey()
	switch {
	case err == nil:
		fmt.Printf("   %s key set complete\n", okMark)
	case errors.Is(err, derrors.ErrKeysNotFound):
		fmt.Printf("   %s no keys (run: diaria init)\n", warnMark)
	default:
		fmt.Printf("   %s %v\n", failMark, err)
	}
	if cfg.Keyring && keyring.HasPassphrase(cfg.Keys) {
		fmt.Printf("   %s passphrase cached in keyring\n", okMark)
	}

	fmt.Println("Sandbox:")
	caps := sandbox.DetectCapabilities()
	switch {
	case !cfg.Sandbox:
		fmt.Printf("   %s disabled in config, editor runs unisolated\n", warnMark)
	case caps.CanRunSandbox():
		fmt.Printf("   %s %s (%s)\n", okMark, caps.BwrapVersion, caps.BwrapPath)
	default:
		fmt.Printf("   %s %s\n", failMark, caps.SkipReason())
	}

	fmt.Println("Entries:")
	items, err := j.Entries().Files()
	if err != nil {
		fmt.Printf("   %s %v\n", failMark, err)
		return
	}
	dated, err := j.Entries().List()
	if err != nil {
		fmt.Printf("   %s %v\n", failMark, err)
		return
	}
	fmt.Printf("   %s %d entries\n", okMark, len(dated))
	if n := len(items) - len(dated); n > 0 {
		fmt.Printf("   %s %d .diaria files without a timestamp name\n", warnMark, n)
	}

	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	fmt.Print(git.FormatGitStatus(git.CheckStatus(cfg.Entries, names)))
}
