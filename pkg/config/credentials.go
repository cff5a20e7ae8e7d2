package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	omerrors "github.com/filippocastelli/go-omada/pkg/errors"
)

// CredentialProvider supplies the username and password used to log in.
type CredentialProvider interface {
	ProvideCredentials() (username, password string, err error)
}

// StaticCredentials returns fixed credentials, typically from the config file or environment.
type StaticCredentials struct {
	Username string
	Password string
}

func (s StaticCredentials) ProvideCredentials() (string, string, error) {
	if s.Username == "" || s.Password == "" {
		return "", "", omerrors.NewAuthError("username and password are required", nil)
	}
	return s.Username, s.Password, nil
}

// PromptCredentials asks for credentials on a terminal. The password is read without echo.
type PromptCredentials struct {
	// Username skips the username prompt when set.
	Username     string
	In           io.Reader
	Out          io.Writer
	// ReadPassword reads without echo. When nil the password is read as a plain line from In.
	ReadPassword func() ([]byte, error)

	reader *bufio.Reader
}

// NewPromptCredentials prompts on stderr and reads from stdin. Echo is only disabled when stdin is a terminal.
func NewPromptCredentials(username string) *PromptCredentials {
	p := &PromptCredentials{
		Username: username,
		In:       os.Stdin,
		Out:      os.Stderr,
	}
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		p.ReadPassword = func() ([]byte, error) {
			return term.ReadPassword(fd)
		}
	}
	return p
}

func (p *PromptCredentials) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *PromptCredentials) ProvideCredentials() (string, string, error) {
	username := p.Username
	if username == "" {
		fmt.Fprint(p.Out, "username: ")
		line, err := p.readLine()
		if err != nil {
			return "", "", omerrors.NewAuthError("reading username", err)
		}
		username = strings.TrimSpace(line)
	}

	var password string
	if p.ReadPassword == nil {
		fmt.Fprintln(p.Out, "warning: cannot disable echo, the password may be shown")
		fmt.Fprint(p.Out, "password: ")
		line, err := p.readLine()
		if err != nil {
			return "", "", omerrors.NewAuthError("reading password", err)
		}
		password = line
	} else {
		fmt.Fprint(p.Out, "password: ")
		pw, err := p.ReadPassword()
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", "", omerrors.NewAuthError("reading password", err)
		}
		password = strings.TrimRight(string(pw), "\r\n")
	}

	if username == "" || password == "" {
		return "", "", omerrors.NewAuthError("username and password are required", nil)
	}
	return username, password, nil
}

// CredentialProvider picks static credentials when both are configured and a terminal prompt otherwise.
func (c *Config) CredentialProvider() CredentialProvider {
	if c.HasCredentials() {
		return StaticCredentials{Username: c.Username, Password: c.Password}
	}
	return NewPromptCredentials(c.Username)
}
