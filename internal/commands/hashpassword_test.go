package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/abrezinsky/bisadmin/internal/auth"
)

func TestHash(t *testing.T) {
	hash, err := Hash("tajné-heslo", "tajné-heslo")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	ok, err := auth.VerifyPassword("tajné-heslo", hash)
	if err != nil || !ok {
		t.Errorf("expected hash to verify, got %v (%v)", ok, err)
	}
}

func TestHash_Errors(t *testing.T) {
	if _, err := Hash("", ""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("expected ErrEmptyPassword, got %v", err)
	}
	if _, err := Hash("one", "two"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestMaskInput(t *testing.T) {
	var echo bytes.Buffer
	got := maskInput(strings.NewReader("heslx\x7foš\r"), &echo, func() { t.Error("unexpected interrupt") })

	if got != "hesloš" {
		t.Errorf("expected backspace to remove the last character, got %q", got)
	}
	if strings.Contains(echo.String(), "h") {
		t.Errorf("expected masked echo, got %q", echo.String())
	}
}

func TestMaskInput_Interrupt(t *testing.T) {
	interrupted := false
	got := maskInput(strings.NewReader("abc\x03def\r"), &bytes.Buffer{}, func() { interrupted = true })

	if !interrupted || got != "" {
		t.Errorf("expected interrupt, got %q (interrupted=%v)", got, interrupted)
	}
}

func TestTrimNewline(t *testing.T) {
	if got := trimNewline("secret\r\n"); got != "secret" {
		t.Errorf("expected trimmed line, got %q", got)
	}
}
