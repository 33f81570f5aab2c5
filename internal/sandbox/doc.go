// Package sandbox runs the external editor with as little reach into the
// user's system as possible.
//
// Two backends implement Sandbox. Bwrap wraps the command in bubblewrap
// with fresh user, mount, pid, ipc, uts, cgroup and network namespaces: the
// system directories are mounted read-only, /tmp and $HOME are empty
// tmpfs mounts and the only writable host path is the session scratch
// directory. Passthrough runs the command directly and exists for
// --no-sandbox and for systems without unprivileged user namespaces.
//
// New never falls back from Bwrap to Passthrough on its own; a system that
// cannot build the isolated context yields ErrSandboxUnavailable.
//
// RunEditor drives one editing session: it creates a private scratch
// directory holding an empty entry file, substitutes the first % of the
// editor template with the quoted file path, runs the template through
// /bin/sh inside the sandbox, and returns the file contents. The scratch
// directory is removed on every return path.
package sandbox
