//go:build !windows

package ffmpeg

import "os/exec"

// hideConsole is a no-op outside Windows; nothing to suppress.
func hideConsole(cmd *exec.Cmd, enabled bool) {}
