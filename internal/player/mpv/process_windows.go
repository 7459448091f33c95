//go:build windows

package mpv

import (
	"os/exec"
	"syscall"
)

// setupProcessAttributes puts mpv.exe in its own process group so Ctrl+C
// in the terminal does not reach it
func setupProcessAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
