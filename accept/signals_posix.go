//go:build linux || darwin || freebsd || openbsd || netbsd

// accept/signals_posix.go
//
// Installs the ignored-signal policy spec §4.8 step 2 / §9 calls for:
// SIGCHLD and SIGPIPE ignored during Start, on POSIX only. Uses
// golang.org/x/sys/unix the same way the teacher's internal/transport and
// internal/concurrency packages reach for it for low-level platform access.
//
// Author: momentics <momentics@gmail.com>

package accept

import (
	"os/signal"

	"golang.org/x/sys/unix"
)

// InstallIgnoredSignals ignores SIGCHLD and SIGPIPE for the process
// (spec §9 "Global process signals"). Hosts needing custom dispositions
// must reinstall their own handlers after Start returns, as spec.md notes.
func InstallIgnoredSignals() {
	signal.Ignore(unix.SIGPIPE, unix.SIGCHLD)
}

// RestoreSignals undoes InstallIgnoredSignals. Context.Stop calls it during
// teardown.
func RestoreSignals() {
	signal.Reset(unix.SIGPIPE, unix.SIGCHLD)
}
