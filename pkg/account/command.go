package account

import (
	"fmt"
	"strings"
)

// Command names a vehicle action understood by the service.
type Command string

const (
	CommandRemoteStart  Command = "remote_start"
	CommandRemoteStop   Command = "remote_stop"
	CommandArm          Command = "arm"
	CommandDisarm       Command = "disarm"
	CommandTrunk        Command = "trunk"
	CommandPanicOn      Command = "panic_on"
	CommandPanicOff     Command = "panic_off"
	CommandAux1         Command = "remote_aux1"
	CommandAux2         Command = "remote_aux2"
	CommandLocation     Command = "location"
	CommandDeviceStatus Command = "device_status"
)

// Commands lists every Command the service accepts.
var Commands = []Command{
	CommandRemoteStart,
	CommandRemoteStop,
	CommandArm,
	CommandDisarm,
	CommandTrunk,
	CommandPanicOn,
	CommandPanicOff,
	CommandAux1,
	CommandAux2,
	CommandLocation,
	CommandDeviceStatus,
}

// ParseCommand converts a user-supplied name such as "REMOTE-START" into a Command.
func ParseCommand(name string) (Command, error) {
	canonical := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, c := range Commands {
		if string(c) == canonical {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown command '%s'", name)
}
