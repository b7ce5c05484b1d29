//go:build !(linux || darwin || freebsd || openbsd || netbsd)

// accept/signals_other.go — non-POSIX platforms have neither SIGCHLD nor
// SIGPIPE in the sense spec §9 means; both calls are no-ops.
//
// Author: momentics <momentics@gmail.com>

package accept

// InstallIgnoredSignals is a no-op outside POSIX.
func InstallIgnoredSignals() {}

// RestoreSignals is a no-op outside POSIX.
func RestoreSignals() {}
