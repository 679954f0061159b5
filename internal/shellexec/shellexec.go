// Package shellexec spawns BEFORE/COMMAND/AFTER chord actions through the
// user's shell, adapted from src/util/util_unix.go's ExecCommand /
// ExecCommandWith.
package shellexec

import (
	"os"
	"os/exec"
)

// Command builds the *exec.Cmd for running text under shell, falling back
// to $SHELL then "sh" when shell is empty (spec §6 "--shell STRING").
func Command(shell, text string) *exec.Cmd {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "sh"
	}
	return exec.Command(shell, "-c", text)
}

// Run spawns text under shell and blocks until it exits (SYNC_* flags,
// spec §4.5/§5 "waitpid on synchronous child processes").
func Run(shell, text string) error {
	cmd := Command(shell, text)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Start spawns text under shell without waiting (async hook/command path,
// spec §5 "When any of those is asynchronous, the next in the sequence is
// started immediately after the fork").
func Start(shell, text string) error {
	cmd := Command(shell, text)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}
