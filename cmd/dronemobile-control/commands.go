package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dronectl/remote-start/pkg/account"
	"github.com/dronectl/remote-start/pkg/vehicle"
)

var (
	ErrCommandLineArgs = errors.New("invalid command line arguments")
	ErrUnknownCommand  = errors.New("unrecognized command")
	ErrNoVehicles      = errors.New("no vehicles were found on the account")
)

// output is replaced in tests.
var output io.Writer = os.Stdout

type Argument struct {
	name string
	help string
}

type Handler func(ctx context.Context, acct *account.Account, deviceKey string, args map[string]string) error

type Command struct {
	help            string
	requiresVehicle bool // True if the command targets a vehicle and needs a device key
	args            []Argument
	optional        []Argument
	handler         Handler
	action          account.Command // Set for commands that map directly onto a service command
}

func parseArgs(info *Command, args []string) (map[string]string, error) {
	if len(args) < len(info.args) || len(args) > len(info.args)+len(info.optional) {
		return nil, fmt.Errorf("%w: %d given (%d required, %d optional)", ErrCommandLineArgs, len(args), len(info.args), len(info.optional))
	}
	keywords := make(map[string]string)
	for i, argInfo := range info.args {
		keywords[argInfo.name] = args[i]
	}
	index := len(info.args)
	for _, argInfo := range info.optional {
		if index >= len(args) {
			break
		}
		keywords[argInfo.name] = args[index]
		index++
	}
	return keywords, nil
}

// resolveDeviceKey returns deviceKey if set, or else the device key of the account's first vehicle.
func resolveDeviceKey(ctx context.Context, acct *account.Account, deviceKey string) (string, error) {
	if deviceKey != "" {
		return deviceKey, nil
	}
	vehicles, err := acct.ListVehicles(ctx)
	if err != nil {
		return "", err
	}
	if len(vehicles) == 0 {
		return "", ErrNoVehicles
	}
	return vehicle.DeviceKey(vehicles[0])
}

func execute(ctx context.Context, acct *account.Account, deviceKey string, args []string) error {
	if len(args) == 0 {
		return errors.New("missing COMMAND")
	}

	info, ok := commands[args[0]]
	if !ok {
		return ErrUnknownCommand
	}

	keywords, err := parseArgs(info, args[1:])
	if err == nil {
		if info.requiresVehicle {
			deviceKey, err = resolveDeviceKey(ctx, acct, deviceKey)
		}
		if err == nil {
			err = info.handler(ctx, acct, deviceKey, keywords)
		}
	}

	// Print command-specific help
	if errors.Is(err, ErrCommandLineArgs) {
		info.Usage(args[0])
	}
	return err
}

func (c *Command) Usage(name string) {
	fmt.Printf("Usage: %s", name)
	maxLength := 0
	for _, arg := range c.args {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" [")
	}
	for _, arg := range c.optional {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" ]")
	}
	fmt.Printf("\n%s\n", c.help)
	if c.action != "" {
		fmt.Printf("Sends the %s service command.\n", c.action)
	}
	maxLength++
	for _, arg := range c.args {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
	for _, arg := range c.optional {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
}

func printResponse(rsp json.RawMessage) error {
	var out bytes.Buffer
	rsp = bytes.TrimSpace(rsp)
	if len(rsp) == 0 {
		rsp = json.RawMessage("null")
	}
	if err := json.Indent(&out, rsp, "", "  "); err != nil {
		return fmt.Errorf("invalid response from server: %s", err)
	}
	out.WriteByte('\n')
	_, err := output.Write(out.Bytes())
	return err
}

func printVehicles(vehicles []vehicle.Record) {
	if len(vehicles) == 0 {
		fmt.Fprintln(output, "No vehicles found.")
		return
	}
	for i, v := range vehicles {
		name := v.Name()
		if name == "" {
			name = "(unnamed)"
		}
		deviceKey, err := vehicle.DeviceKey(v)
		if err != nil {
			deviceKey = "-"
		}
		fmt.Fprintf(output, "%d\t%s\t%s\n", i, deviceKey, name)
	}
}

func vehicleCommand(help string, action account.Command) *Command {
	return &Command{
		help:            help,
		requiresVehicle: true,
		action:          action,
		handler: func(ctx context.Context, acct *account.Account, deviceKey string, args map[string]string) error {
			rsp, err := acct.SendCommand(ctx, deviceKey, action)
			if err != nil {
				return err
			}
			return printResponse(rsp)
		},
	}
}

var commands = map[string]*Command{
	"vehicles": &Command{
		help:            "List vehicles on the account",
		requiresVehicle: false,
		handler: func(ctx context.Context, acct *account.Account, deviceKey string, args map[string]string) error {
			vehicles, err := acct.ListVehicles(ctx)
			if err != nil {
				return err
			}
			printVehicles(vehicles)
			return nil
		},
	},
	"start":     vehicleCommand("Remote start vehicle", account.CommandRemoteStart),
	"stop":      vehicleCommand("Remote stop vehicle", account.CommandRemoteStop),
	"lock":      vehicleCommand("Lock vehicle and arm security system", account.CommandArm),
	"unlock":    vehicleCommand("Unlock vehicle and disarm security system", account.CommandDisarm),
	"trunk":     vehicleCommand("Release trunk", account.CommandTrunk),
	"panic-on":  vehicleCommand("Sound panic alarm", account.CommandPanicOn),
	"panic-off": vehicleCommand("Silence panic alarm", account.CommandPanicOff),
	"aux1":      vehicleCommand("Trigger auxiliary output 1", account.CommandAux1),
	"aux2":      vehicleCommand("Trigger auxiliary output 2", account.CommandAux2),
	"location":  vehicleCommand("Fetch vehicle location", account.CommandLocation),
	"status":    vehicleCommand("Fetch vehicle status", account.CommandDeviceStatus),
	"raw": &Command{
		help:            "Send COMMAND to vehicle",
		requiresVehicle: true,
		args: []Argument{
			Argument{name: "COMMAND", help: "Service command name (e.g., remote_start, device_status)"},
		},
		handler: func(ctx context.Context, acct *account.Account, deviceKey string, args map[string]string) error {
			action, err := account.ParseCommand(args["COMMAND"])
			if err != nil {
				return fmt.Errorf("%w: %s", ErrCommandLineArgs, err)
			}
			rsp, err := acct.SendCommand(ctx, deviceKey, action)
			if err != nil {
				return err
			}
			return printResponse(rsp)
		},
	},
}
