//go:build linux

package main

import (
	"errors"
	"os"
	"syscall"
	"unsafe"
)

// rawInput switches stdin to unbuffered, unechoed mode and returns a
// function restoring the previous state. Output processing stays on so
// log lines keep their line breaks.
func rawInput() (func(), error) {
	fd := int(os.Stdin.Fd())
	var oldState syscall.Termios
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), syscall.TCGETS, uintptr(unsafe.Pointer(&oldState))); errno != 0 {
		return nil, errors.New("stdin is not a terminal")
	}

	newState := oldState
	newState.Lflag &^= syscall.ICANON | syscall.ECHO
	newState.Cc[syscall.VMIN] = 1
	newState.Cc[syscall.VTIME] = 0

	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), syscall.TCSETS, uintptr(unsafe.Pointer(&newState))); errno != 0 {
		return nil, errno
	}

	return func() {
		syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), syscall.TCSETS, uintptr(unsafe.Pointer(&oldState)))
	}, nil
}
