// Package remotestart starts the first vehicle on a DroneMobile account.
//
// A [Runner] performs the whole exchange in a fixed order: authenticate, list the account's
// vehicles, pick the first one, resolve its device key, and send a remote start command. The first
// step to fail aborts the run and is reported as an [*Error] whose [Kind] names the step. Nothing
// is retried.
//
// The vehicle service is reached through the [Client] interface, which [account.Account]
// implements. Tests substitute a mock.
package remotestart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dronectl/remote-start/internal/log"
	"github.com/dronectl/remote-start/pkg/account"
	"github.com/dronectl/remote-start/pkg/vehicle"
)

//go:generate mockgen -package mocks -destination ../../mocks/client.go -mock_names Client=RemoteStartClient github.com/dronectl/remote-start/pkg/remotestart Client

// Client is the subset of the vehicle service used to start a vehicle.
type Client interface {
	Authenticate(ctx context.Context) error
	ListVehicles(ctx context.Context) ([]vehicle.Record, error)
	Start(ctx context.Context, deviceKey string) (json.RawMessage, error)
}

// NewClientFunc creates an unauthenticated Client for the given credentials.
type NewClientFunc func(username, password string) (Client, error)

// NewAccountClient is the production NewClientFunc.
func NewAccountClient(username, password string) (Client, error) {
	acct, err := account.New(username, password, "")
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// Credentials identify a DroneMobile account.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) valid() bool {
	return c.Username != "" && c.Password != ""
}

// Runner starts a vehicle.
type Runner struct {
	NewClient NewClientFunc
}

// New returns a Runner that uses newClient to reach the service. If newClient is nil, the Runner
// uses [NewAccountClient].
func New(newClient NewClientFunc) *Runner {
	if newClient == nil {
		newClient = NewAccountClient
	}
	return &Runner{NewClient: newClient}
}

// Run starts the first vehicle on the account identified by creds and returns the service's
// response.
func (r *Runner) Run(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	if !creds.valid() {
		return nil, newError(KindConfiguration, ErrMissingCredentials)
	}

	client, vehicles, err := r.login(ctx, creds)
	if err != nil {
		return nil, newError(KindAuthentication, err)
	}
	if len(vehicles) == 0 {
		return nil, newError(KindNoVehicles, ErrNoVehicles)
	}
	log.Info("Found %d vehicle(s); using the first", len(vehicles))

	deviceKey, err := vehicle.DeviceKey(vehicles[0])
	if err != nil {
		return nil, newError(KindDeviceKey, err)
	}
	log.Debug("Using device key %s", deviceKey)

	rsp, err := client.Start(ctx, deviceKey)
	if err != nil {
		return nil, newError(KindCommand, err)
	}
	log.Info("Remote start sent")
	return rsp, nil
}

// login covers client construction, authentication, and vehicle listing, which share a failure
// category.
func (r *Runner) login(ctx context.Context, creds Credentials) (Client, []vehicle.Record, error) {
	client, err := r.NewClient(creds.Username, creds.Password)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return nil, nil, fmt.Errorf("no client available")
	}
	log.Info("Authenticating...")
	if err := client.Authenticate(ctx); err != nil {
		return nil, nil, err
	}
	log.Info("Fetching vehicles...")
	vehicles, err := client.ListVehicles(ctx)
	if err != nil {
		return nil, nil, err
	}
	return client, vehicles, nil
}
