//go:build openbsd

package sandbox

import "golang.org/x/sys/unix"

// Protect calls pledge with the promise set wk actually needs: reading its
// own source files, talking to a tty/compositor, and forking/execing the
// shell for BEFORE/COMMAND/AFTER actions (adapted from
// src/protector/protector_openbsd.go, narrowed from fzf's "inet" promise
// which wk's local-only menu never needs).
func Protect() {
	unix.PledgePromises("stdio rpath tty proc exec")
}
