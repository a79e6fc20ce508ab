package remotestart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dronectl/remote-start/internal/log"
	"github.com/dronectl/remote-start/pkg/cli"
)

// Environment variables holding the account credentials.
const (
	EnvUsername = cli.EnvUsername
	EnvPassword = cli.EnvPassword
)

// Exit codes returned by Main.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

func writeErr(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, format, a...)
	fmt.Fprintf(w, "\n")
}

// Main runs a complete remote start and returns the process exit status.
//
// Credentials are read using lookupEnv (typically os.LookupEnv). On success the service's response
// is written to stdout, indented by two spaces; on failure a single line describing the failure is
// written to stderr. A panic raised while talking to the service is reported as an unexpected
// error rather than crashing the process.
func Main(ctx context.Context, lookupEnv func(string) (string, bool), stdout, stderr io.Writer, newClient NewClientFunc) (status int) {
	status = ExitFailure
	defer func() {
		if r := recover(); r != nil {
			writeErr(stderr, "Unexpected error: %s", lineBreaks.Replace(fmt.Sprint(r)))
			status = ExitFailure
		}
	}()

	config := cli.NewConfig(0)
	config.LookupEnv = lookupEnv
	config.ReadFromEnvironment()
	if config.Verbose {
		log.SetLevel(log.LevelDebug)
	}

	rsp, err := New(newClient).Run(ctx, Credentials{Username: config.Username, Password: config.Password})
	if err != nil {
		writeErr(stderr, "%s", describe(err))
		return
	}

	rsp = bytes.TrimSpace(rsp)
	if len(rsp) == 0 {
		rsp = json.RawMessage("null")
	}
	var out bytes.Buffer
	if err := json.Indent(&out, rsp, "", "  "); err != nil {
		writeErr(stderr, "Unexpected error: invalid response from server: %s", err)
		return
	}
	out.WriteByte('\n')
	if _, err := stdout.Write(out.Bytes()); err != nil {
		writeErr(stderr, "Unexpected error: %s", err)
		return
	}
	return ExitSuccess
}

func describe(err error) string {
	if KindOf(err) == KindUnexpected {
		return "Unexpected error: " + lineBreaks.Replace(err.Error())
	}
	return err.Error()
}
