package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/diaria/internal/logging"
)

// systemDirs are mounted read-only when present on the host.
var systemDirs = []string{"/usr", "/bin", "/lib", "/lib64", "/sbin", "/etc"}

// passEnv lists the variables forwarded into the cleared environment.
var passEnv = []string{"PATH", "HOME", "TERM", "LANG", "LC_ALL", "COLORTERM"}

// Bwrap runs commands under bubblewrap.
type Bwrap struct {
	Path   string
	Logger *logging.Logger
}

func (b *Bwrap) Name() string { return "bwrap" }

func (b *Bwrap) Run(ctx context.Context, cmd *Command) error {
	args, err := b.Args(cmd)
	if err != nil {
		return err
	}
	b.Logger.Debugf("bwrap %v", args)
	return run(ctx, append([]string{b.Path}, args...), cmd, nil)
}

// Args builds the bubblewrap argument list for cmd.
func (b *Bwrap) Args(cmd *Command) ([]string, error) {
	if len(cmd.Args) == 0 {
		return nil, fmt.Errorf("command is required")
	}
	if cmd.Dir == "" || !filepath.IsAbs(cmd.Dir) {
		return nil, fmt.Errorf("sandbox working directory must be an absolute path, got %q", cmd.Dir)
	}

	args := []string{
		"--unshare-all",
		"--die-with-parent",
	}

	for _, dir := range systemDirs {
		info, err := os.Lstat(dir)
		if err != nil {
			continue
		}
		// Merged-/usr systems have /bin -> usr/bin and friends.
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(dir)
			if err != nil {
				continue
			}
			args = append(args, "--symlink", target, dir)
			continue
		}
		if info.IsDir() {
			args = append(args, "--ro-bind", dir, dir)
		}
	}

	args = append(args,
		"--proc", "/proc",
		"--dev", "/dev",
		"--tmpfs", "/tmp",
	)

	home := os.Getenv("HOME")
	if filepath.IsAbs(home) && home != "/" {
		args = append(args, "--tmpfs", home)
	}

	// The scratch bind comes last so it is visible through the tmpfs mounts.
	args = append(args, "--bind", cmd.Dir, cmd.Dir)

	args = append(args, "--clearenv")
	for _, name := range passEnv {
		if value, ok := os.LookupEnv(name); ok {
			args = append(args, "--setenv", name, value)
		}
	}

	args = append(args, "--chdir", cmd.Dir, "--")
	args = append(args, cmd.Args...)
	return args, nil
}
