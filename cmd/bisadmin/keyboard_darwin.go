//go:build darwin

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// rawInput switches stdin to unbuffered, unechoed mode and returns a
// function restoring the previous state.
func rawInput() (func(), error) {
	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, unix.TIOCGETA)
	if err != nil {
		return nil, err
	}

	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TIOCSETA, &newState); err != nil {
		return nil, err
	}

	return func() { unix.IoctlSetTermios(fd, unix.TIOCSETA, oldState) }, nil
}
