//go:build windows

package process

import "os/exec"

// Windows cannot deliver os.Interrupt to a child process.
func interrupt(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
