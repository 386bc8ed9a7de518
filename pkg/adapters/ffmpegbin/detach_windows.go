//go:build windows

package ffmpegbin

import (
	"os/exec"
	"syscall"
)

// CREATE_NEW_PROCESS_GROUP keeps console ^C events away from the collaborator.
const createNewProcessGroup = 0x00000200

func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}
