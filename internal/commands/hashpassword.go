// Package commands implements the bisadmin subcommands.
package commands

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/abrezinsky/bisadmin/internal/auth"
)

var (
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// HashPassword handles the hash-password subcommand. It prints an argon2id
// hash suitable for admin.password_hash or BISADMIN_ADMIN_PASSWORD_HASH.
func HashPassword(args []string) {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	insecureUnmask := fs.Bool("insecure-unmask-password", false, "Show password as plain text (INSECURE!)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bisadmin hash-password [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Prints an Argon2id hash of the admin password.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nStore the hash as admin.password_hash in the config file\n")
		fmt.Fprintf(os.Stderr, "or in BISADMIN_ADMIN_PASSWORD_HASH.\n")
	}
	fs.Parse(args)

	var password, passwordConfirm string
	if *insecureUnmask {
		fmt.Fprintf(os.Stderr, "WARNING: Password will be visible on screen!\n")
		reader := bufio.NewReader(os.Stdin)
		password = readLine(reader, "Enter password:   ")
		passwordConfirm = readLine(reader, "Confirm password: ")
	} else {
		password = readPasswordWithMask("Enter password:   ")
		passwordConfirm = readPasswordWithMask("Confirm password: ")
	}

	hash, err := Hash(password, passwordConfirm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// Hash checks the confirmation and returns the encoded hash
func Hash(password, confirm string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if password != confirm {
		return "", ErrPasswordMismatch
	}
	return auth.HashPassword(password)
}

func readLine(r *bufio.Reader, prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		os.Exit(1)
	}
	return trimNewline(line)
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// readPasswordWithMask reads password input and displays asterisks.
// Prompts go to stderr so stdout carries only the hash.
func readPasswordWithMask(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(syscall.Stdin)
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Not a terminal; fall back to hidden input
		password, _ := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(password)
	}
	defer term.Restore(fd, oldState)

	return maskInput(bufio.NewReader(os.Stdin), os.Stderr, func() {
		term.Restore(fd, oldState)
		os.Exit(1)
	})
}

// maskInput reads runes until Enter, echoing an asterisk per character
func maskInput(r io.RuneReader, echo io.Writer, interrupt func()) string {
	var password []rune
	for {
		char, _, err := r.ReadRune()
		if err != nil {
			break
		}

		switch char {
		case '\n', '\r':
			fmt.Fprint(echo, "\r\n")
			return string(password)
		case 127, 8: // backspace or delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Fprint(echo, "\b \b")
			}
		case 3: // Ctrl+C
			fmt.Fprint(echo, "\r\n")
			interrupt()
			return ""
		default:
			// Czech passwords may contain diacritics, so any printable rune counts
			if char >= 32 && char != 127 {
				password = append(password, char)
				fmt.Fprint(echo, "*")
			}
		}
	}

	fmt.Fprint(echo, "\r\n")
	return string(password)
}
