//go:build windows

package infra

import "syscall"

func detachedProcAttr() *syscall.SysProcAttr {
	return nil
}
