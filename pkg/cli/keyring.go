package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/99designs/keyring"
	"golang.org/x/term"
)

const (
	keyringServiceName     = "com.dronemobile.auth"
	keyringPasswordService = "password"
	keyringDirectory       = "~/.dronemobile_keys"
)

type backendType struct {
	config *Config
}

func (b backendType) String() string {
	if b.config == nil || len(b.config.Backend.AllowedBackends) == 0 {
		return string(keyring.InvalidBackend)
	}
	return string(b.config.Backend.AllowedBackends[0])
}

func (b backendType) Set(v string) error {
	value := keyring.BackendType(v)
	if b.config == nil {
		return fmt.Errorf("invalid backendType")
	}
	if v == "" {
		return nil
	}
	for _, name := range keyring.AvailableBackends() {
		if name == value {
			b.config.Backend.AllowedBackends = []keyring.BackendType{name}
			return nil
		}
	}
	return fmt.Errorf("unsupported credential storage")
}

// ReadPassword prompts for a secret on whichever of stdout or stderr is a terminal.
func ReadPassword(prompt string) (string, error) {
	var w io.Writer
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		fd = int(os.Stderr.Fd())
		if !term.IsTerminal(fd) {
			return "", fmt.Errorf("no terminal output available for password prompt")
		} else {
			w = os.Stderr
		}
	} else {
		w = os.Stdout
	}

	fmt.Fprintf(w, "%s: ", prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(w)
	return string(b), nil
}

// getPassword unlocks file-backed keyrings.
func (c *Config) getPassword(prompt string) (string, error) {
	if c.keyringPassword != nil && *c.keyringPassword != "" {
		return *c.keyringPassword, nil
	}
	password, err := ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	c.keyringPassword = &password
	return password, nil
}

func (c *Config) openKeyring() (keyring.Keyring, error) {
	return keyring.Open(c.Backend)
}

func (c *Config) passwordKey() string {
	return keyringPasswordService + "." + c.Username
}

// LoadPasswordFromKeyring loads the account password for c.Username from the system keyring.
func (c *Config) LoadPasswordFromKeyring() (string, error) {
	if c.Username == "" {
		return "", ErrMissingCredentials
	}
	kr, err := c.openKeyring()
	if err != nil {
		return "", err
	}
	item, err := kr.Get(c.passwordKey())
	if err != nil {
		return "", fmt.Errorf("could not load password: %w", err)
	}
	return string(item.Data), nil
}

// SavePasswordToKeyring stores password for c.Username in the system keyring.
func (c *Config) SavePasswordToKeyring(password string) error {
	if c.Username == "" {
		return ErrMissingCredentials
	}
	kr, err := c.openKeyring()
	if err != nil {
		return err
	}

	if err := kr.Set(keyring.Item{
		Key:         c.passwordKey(),
		Data:        []byte(password),
		Label:       "DroneMobile password for " + c.Username,
		Description: "DroneMobile account password",
	}); err != nil {
		return fmt.Errorf("failed to enroll password in keyring: %s", err)
	}
	return nil
}

// DeletePasswordFromKeyring removes the password for c.Username from the system keyring.
func (c *Config) DeletePasswordFromKeyring() error {
	if c.Username == "" {
		return ErrMissingCredentials
	}
	kr, err := c.openKeyring()
	if err != nil {
		return err
	}
	return kr.Remove(c.passwordKey())
}
