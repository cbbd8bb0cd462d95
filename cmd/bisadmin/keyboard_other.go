//go:build !linux && !darwin

package main

// rawInput leaves the console alone; keys are delivered after Enter
func rawInput() (func(), error) {
	return func() {}, nil
}
