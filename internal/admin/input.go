// Package admin holds operator tasks run from cmd/admin: bootstrapping the
// first superuser and reading passwords from the terminal.
package admin

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

const (
	minPasswordLen = 8
	maxPasswordLen = 40
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// GetPassword prints prompt to w and reads a password without echo.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// PromptNewPassword asks for a password twice and checks the length bounds
// the reset endpoint enforces.
func PromptNewPassword(w io.Writer) (string, error) {
	first, err := GetPassword(w, "New password: ")
	if err != nil {
		return "", err
	}
	if n := utf8.RuneCount(first); n < minPasswordLen || n > maxPasswordLen {
		return "", fmt.Errorf("password must be %d to %d characters", minPasswordLen, maxPasswordLen)
	}
	second, err := GetPassword(w, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", ErrPasswordMismatch
	}
	return string(first), nil
}
