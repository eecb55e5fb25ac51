//go:build !windows

package process

import (
	"os"
	"os/exec"
)

func interrupt(cmd *exec.Cmd) error {
	return cmd.Process.Signal(os.Interrupt)
}
