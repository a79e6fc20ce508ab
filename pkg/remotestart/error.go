package remotestart

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the step at which a remote start failed.
type Kind int

const (
	KindUnexpected Kind = iota
	KindConfiguration
	KindAuthentication
	KindNoVehicles
	KindDeviceKey
	KindCommand
)

var kindNames = map[Kind]string{
	KindUnexpected:     "unexpected",
	KindConfiguration:  "configuration",
	KindAuthentication: "authentication",
	KindNoVehicles:     "no vehicles",
	KindDeviceKey:      "device key",
	KindCommand:        "command",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var (
	ErrMissingCredentials = errors.New("Both " + EnvUsername + " and " + EnvPassword + " must be set as environment variables.")
	ErrNoVehicles         = errors.New("No vehicles were found on your DroneMobile account.")
)

// Error is returned by [Runner.Run]. Err holds the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

// lineBreaks are flattened so an Error always prints as a single line.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func (e *Error) Error() string {
	return lineBreaks.Replace(e.message())
}

func (e *Error) message() string {
	switch e.Kind {
	case KindConfiguration, KindNoVehicles:
		return "Error: " + e.Err.Error()
	case KindAuthentication:
		return "Error during authentication or vehicle retrieval: " + e.Err.Error()
	case KindDeviceKey:
		return "Error extracting device key: " + e.Err.Error()
	case KindCommand:
		return "Error issuing remote start command: " + e.Err.Error()
	}
	return "Unexpected error: " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnexpected if err was not produced by a Runner.
func KindOf(err error) Kind {
	var rsErr *Error
	if errors.As(err, &rsErr) {
		return rsErr.Kind
	}
	return KindUnexpected
}

func newError(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}
