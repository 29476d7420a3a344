//go:build windows

package ffmpeg

import (
	"os/exec"
	"syscall"
)

// hideConsole marks the command so it does not flash a console window.
func hideConsole(cmd *exec.Cmd, enabled bool) {
	if !enabled {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: 0x08000000, // CREATE_NO_WINDOW
	}
}
