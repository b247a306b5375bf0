//go:build windows

package tools

import "os/exec"

func configureProcess(cmd *exec.Cmd) {}
