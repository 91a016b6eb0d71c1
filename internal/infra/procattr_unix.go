//go:build !windows

package infra

import "syscall"

func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true, // Own process group, detached from our terminal signals
	}
}
