package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/illarion/diaria/internal/core"
	"github.com/illarion/diaria/internal/sandbox"
)

func newAddCmd() *cobra.Command {
	var (
		editor    string
		input     string
		output    string
		noSandbox bool
	)

	c := &cobra.Command{
		Use:   "add",
		Short: "Write a new entry",
		Long: `Open the editor on an empty scratch file and store what you write as a new
encrypted entry named after the current UTC time.

The editor command is a shell string; % is replaced by the path of the
scratch file. With --input an existing file is encrypted instead.`,
		Args: cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			if editor == "" {
				editor = cfg.Editor
			}
			Add(c, core.AddOptions{Editor: editor, InputPath: input, OutputName: output}, cfg.Sandbox && !noSandbox)
		},
	}

	c.Flags().StringVar(&editor, "editor", "", "editor command with a % placeholder (env DIARIA_EDITOR)")
	c.Flags().StringVarP(&input, "input", "i", "", "encrypt this file instead of running the editor")
	c.Flags().StringVarP(&output, "output", "o", "", "entry name or path instead of the current time")
	c.Flags().BoolVar(&noSandbox, "no-sandbox", false, "run the editor without isolation")
	c.MarkFlagsMutuallyExclusive("editor", "input")
	return c
}

// Add captures and stores one entry
func Add(c *cobra.Command, opts core.AddOptions, isolated bool) {
	var sb sandbox.Sandbox
	if opts.InputPath == "" {
		if err := sandbox.CheckTemplate(opts.Editor); err != nil {
			HandleError(err)
		}
		var err error
		sb, err = sandbox.New(isolated, Logger)
		if err != nil {
			HandleError(err)
		}
		if !isolated {
			Logger.Warnf("editor runs without sandbox")
		}
	}

	path, err := openJournal(sb).Add(c.Context(), opts)
	if err != nil {
		HandleError(err)
	}
	fmt.Println(path)
}
