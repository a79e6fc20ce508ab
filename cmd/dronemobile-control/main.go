package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/dronectl/remote-start/internal/log"
	"github.com/dronectl/remote-start/pkg/account"
	"github.com/dronectl/remote-start/pkg/cli"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

const usage = `
 * All commands require a DroneMobile username ($DRONEMOBILE_USERNAME) and password.
 * The password is read from $DRONEMOBILE_PASSWORD, the system keyring (see dronemobile-auth), or
   a terminal prompt.
 * Vehicle commands target -device-key, or the first vehicle on the account.`

func Usage() {
	fmt.Printf("Usage: %s [OPTION...] COMMAND [ARG...]\n", os.Args[0])
	fmt.Printf("\nRun %s help COMMAND for more information. Valid COMMANDs are listed below.", os.Args[0])
	fmt.Println("")
	fmt.Println(usage)
	fmt.Println("")

	fmt.Printf("Available OPTIONs:\n")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Printf("Available COMMANDs:\n")
	maxLength := 0
	var labels []string
	for command := range commands {
		labels = append(labels, command)
		if len(command) > maxLength {
			maxLength = len(command)
		}
	}
	sort.Strings(labels)
	for _, command := range labels {
		info := commands[command]
		fmt.Printf("  %s%s %s\n", command, strings.Repeat(" ", maxLength-len(command)), info.help)
	}
}

func runCommand(config *cli.Config, acct *account.Account, args []string, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := execute(ctx, acct, config.DeviceKey, args); err != nil {
		var httpErr *account.HttpError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusUnauthorized {
			config.ForgetCachedSession()
			writeErr("Session rejected by server; run the command again to log in: %s", err)
		} else if errors.As(err, &httpErr) && httpErr.Temporary() {
			writeErr("Server temporarily unavailable: %s", err)
		} else {
			writeErr("Failed to execute command: %s", err)
		}
		return 1
	}
	return 0
}

func runInteractiveShell(config *cli.Config, acct *account.Account, timeout time.Duration) int {
	scanner := bufio.NewScanner(os.Stdin)
	for fmt.Printf("> "); scanner.Scan(); fmt.Printf("> ") {
		args, err := shlex.Split(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			return 0
		}
		if err != nil {
			writeErr("Invalid command: %s", err)
			continue
		}
		runCommand(config, acct, args, timeout)
	}
	if err := scanner.Err(); err != nil {
		writeErr("Error reading command: %s", err)
		return 1
	}
	return 0
}

func main() {
	status := 1
	defer func() {
		os.Exit(status)
	}()

	var (
		debug          bool
		commandTimeout time.Duration
		connTimeout    time.Duration
	)
	config := cli.NewConfig(cli.FlagAll)
	flag.Usage = Usage
	flag.BoolVar(&debug, "debug", false, "Enable verbose debugging messages. Defaults to $"+cli.EnvVerbose+".")
	flag.DurationVar(&commandTimeout, "command-timeout", 20*time.Second, "Set timeout for commands sent to the vehicle.")
	flag.DurationVar(&connTimeout, "connect-timeout", 20*time.Second, "Set timeout for logging in.")

	config.RegisterCommandLineFlags()
	flag.Parse()
	config.Verbose = debug
	config.ReadFromEnvironment()
	if config.Verbose {
		log.SetLevel(log.LevelDebug)
	}

	args := flag.Args()
	if len(args) > 0 {
		if args[0] == "help" {
			if len(args) == 1 {
				Usage()
				return
			}
			info, ok := commands[args[1]]
			if !ok {
				writeErr("Unrecognized command: %s", args[1])
				return
			}
			info.Usage(args[1])
			status = 0
			return
		}
		if _, ok := commands[args[0]]; !ok {
			writeErr("Unrecognized command: %s", args[0])
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	acct, err := config.Account(ctx)
	if err != nil {
		if errors.Is(err, cli.ErrMissingCredentials) {
			writeErr("Error loading credentials: %s (set $%s and $%s, or save a password with dronemobile-auth)", err, cli.EnvUsername, cli.EnvPassword)
		} else {
			writeErr("Error: %s", err)
		}
		return
	}

	if flag.NArg() > 0 {
		status = runCommand(config, acct, flag.Args(), commandTimeout)
	} else {
		status = runInteractiveShell(config, acct, commandTimeout)
	}
}
