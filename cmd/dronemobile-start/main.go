// Starts the first vehicle on a DroneMobile account.
//
// Credentials are read from $DRONEMOBILE_USERNAME and $DRONEMOBILE_PASSWORD. The server's response
// is printed to stdout as indented JSON. Any failure is reported on stderr with exit status 1.

package main

import (
	"context"
	"os"

	"github.com/dronectl/remote-start/pkg/remotestart"
)

func main() {
	os.Exit(remotestart.Main(context.Background(), os.LookupEnv, os.Stdout, os.Stderr, remotestart.NewAccountClient))
}
