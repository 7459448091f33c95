//go:build !windows

package mpv

import "os/exec"

// setupProcessAttributes needs nothing on Unix: stdio is already detached
func setupProcessAttributes(*exec.Cmd) {}
