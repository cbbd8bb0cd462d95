package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/abrezinsky/bisadmin/internal/browser"
	"github.com/abrezinsky/bisadmin/internal/logger"
)

// keyboard maps single key presses to operator actions
type keyboard struct {
	uiURL  string
	appLog *logger.SlogLogger
	out    io.Writer
	quit   context.CancelFunc
	open   func(string) error
}

func newKeyboard(uiURL string, appLog *logger.SlogLogger, out io.Writer, quit context.CancelFunc) *keyboard {
	return &keyboard{uiURL: uiURL, appLog: appLog, out: out, quit: quit, open: browser.Open}
}

// listen reads keys from r until quit is pressed or r fails
func (k *keyboard) listen(r io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if k.handle(buf[0]) {
			return
		}
	}
}

// handle performs the action bound to key and reports whether to stop listening
func (k *keyboard) handle(key byte) bool {
	switch strings.ToLower(string(key)) {
	case "a":
		if k.uiURL == "" {
			fmt.Fprintf(k.out, "%sNo admin UI origin configured (cors.allowed_origins)%s\n", yellow, reset)
			return false
		}
		fmt.Fprintf(k.out, "%sOpening admin UI in browser...%s\n", cyan, reset)
		if err := k.open(k.uiURL); err != nil {
			fmt.Fprintf(k.out, "%sError opening browser: %v%s\n", red, err, reset)
		}
	case "h":
		if k.appLog.IsHTTPLoggingEnabled() {
			k.appLog.DisableHTTPLogging()
			fmt.Fprintf(k.out, "%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			k.appLog.EnableHTTPLogging()
			fmt.Fprintf(k.out, "%sHTTP logging enabled%s\n", green, reset)
		}
	case "l":
		fmt.Fprintf(k.out, "%sLog level: %s%s%s\n", green, yellow, cycleLogLevel(k.appLog), reset)
	case "q", "\x03":
		fmt.Fprintf(k.out, "%sShutting down server...%s\n", yellow, reset)
		k.quit()
		return true
	case "?":
		printKeyboardHelp(k.out)
	}
	return false
}

// cycleLogLevel cycles through debug -> info -> warn -> error and returns the new level
func cycleLogLevel(appLog *logger.SlogLogger) string {
	var next string
	switch appLog.GetLevel().String() {
	case "DEBUG":
		next = "info"
	case "INFO":
		next = "warn"
	case "WARN":
		next = "error"
	case "ERROR":
		next = "debug"
	default:
		next = "info"
	}
	appLog.SetLevel(logger.ParseLevel(next))
	return next
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp(out io.Writer) {
	fmt.Fprintf(out, "\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	fmt.Fprintf(out, "    %sa%s      - Open admin UI in browser\n", cyan, reset)
	fmt.Fprintf(out, "    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Fprintf(out, "    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Fprintf(out, "    %sq%s      - Quit server\n", cyan, reset)
	fmt.Fprintf(out, "    %s?%s      - Show this help\n\n", cyan, reset)
}
