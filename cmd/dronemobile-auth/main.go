// Utility for saving DroneMobile passwords to the system keyring

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/term"

	"github.com/dronectl/remote-start/internal/log"
	"github.com/dronectl/remote-start/pkg/account"
	"github.com/dronectl/remote-start/pkg/cli"
)

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "usage: %s [-username email] [-delete] [-no-verify] [file]\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Reads a DroneMobile password from file, stdin, or a terminal prompt, checks it by")
	fmt.Fprintln(w, "logging in, and saves it in the system keyring. The username defaults to")
	fmt.Fprintf(w, "$%s.\n\n", cli.EnvUsername)
	flag.PrintDefaults()
}

func readPassword(config *cli.Config) (string, error) {
	var data []byte
	var err error
	switch flag.NArg() {
	case 0:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return cli.ReadPassword(fmt.Sprintf("DroneMobile password for %s", config.Username))
		}
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("error reading password from stdin: %w", err)
		}
	case 1:
		data, err = os.ReadFile(flag.Arg(0))
		if err != nil {
			return "", fmt.Errorf("error reading password from file: %w", err)
		}
	default:
		return "", errors.New("too many command-line arguments")
	}
	// Trailing newlines are an artifact of echo and text editors.
	return string(bytes.TrimRight(data, "\r\n")), nil
}

func main() {
	returnCode := 1
	defer func() {
		os.Exit(returnCode)
	}()

	var (
		remove   bool
		noVerify bool
		timeout  time.Duration
	)
	config := cli.NewConfig(cli.FlagKeyring)
	config.RegisterCommandLineFlags()
	flag.BoolVar(&remove, "delete", false, "Remove the saved password instead of saving one")
	flag.BoolVar(&noVerify, "no-verify", false, "Save the password without logging in first")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for the verification login")
	flag.Usage = usage
	flag.Parse()
	config.ReadFromEnvironment()
	if config.Verbose {
		log.SetLevel(log.LevelDebug)
	}

	if config.Username == "" {
		fmt.Fprintf(os.Stderr, "Must provide an account username using -username or $%s\n", cli.EnvUsername)
		return
	}

	if remove {
		if err := config.DeletePasswordFromKeyring(); err != nil {
			if errors.Is(err, cli.ErrKeyNotFound) {
				fmt.Fprintf(os.Stderr, "No password saved for %s\n", config.Username)
			} else {
				fmt.Fprintf(os.Stderr, "Error removing password from keyring: %s\n", err)
			}
			return
		}
		returnCode = 0
		return
	}

	password, err := readPassword(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "Password is empty")
		return
	}

	if !noVerify {
		acct, err := account.New(config.Username, password, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := acct.Authenticate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Login failed, password not saved: %s\n", err)
			return
		}
		log.Info("Verified password for %s", config.Username)
	}

	if err := config.SavePasswordToKeyring(password); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving password to keyring: %s\n", err)
		return
	}

	returnCode = 0
}
