package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/illarion/diaria/internal/git"
)

func newSyncCmd() *cobra.Command {
	var message string

	c := &cobra.Command{
		Use:   "sync",
		Short: "Commit new entries and push them to the git remote",
		Long: `Stage every entry in the entries directory, commit if anything changed,
then pull --rebase and push when a remote is configured. The entries
directory must be a git working tree.`,
		Args: cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			Sync(c, message)
		},
	}
	c.Flags().StringVarP(&message, "message", "m", git.DefaultCommitMessage, "commit message")
	return c
}

// Sync commits and pushes the entries directory
func Sync(c *cobra.Command, message string) {
	j := openJournal(nil)

	items, err := j.Entries().Files()
	if err != nil {
		HandleError(err)
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}

	status := git.CheckStatus(cfg.Entries, names)
	for _, name := range status.Ignored {
		Logger.Warnf("%s is ignored by git, not syncing it", name)
	}
	names = slices.DeleteFunc(names, func(n string) bool {
		return slices.Contains(status.Ignored, n)
	})

	r := &git.Runner{
		WorkDir: cfg.Entries,
		Stdout:  os.Stderr,
		Stderr:  os.Stderr,
		Logger:  Logger,
	}
	if err := r.Sync(c.Context(), names, message); err != nil {
		HandleError(err)
	}
	fmt.Println("Entries synced")
}
