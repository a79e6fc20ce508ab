package account

import (
	"bytes"
	"context"
	_ "embed" // Used to embed version for use with user agent
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dronectl/remote-start/internal/log"
	"github.com/dronectl/remote-start/pkg/vehicle"
)

var (
	//go:embed version.txt
	libraryVersion string
)

const (
	DefaultAuthURL    = "https://cognito-idp.us-east-1.amazonaws.com/"
	DefaultAPIBase    = "https://api.dronemobile.com/api/v1"
	DefaultCommandURL = "https://accounts.dronemobile.com/api/iot/send-command"
	DefaultClientID   = "3l3gtebtua7qft45b4splbeuiu"

	// DefaultTimeout bounds each HTTP exchange with the service.
	DefaultTimeout = 30 * time.Second

	// MaxResponseLength caps the number of bytes read from a response body.
	MaxResponseLength = 1000000

	vehicleListLimit = 100
	initiateAuth     = "AWSCognitoIdentityProviderService.InitiateAuth"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrNotAuthenticated   = errors.New("not authenticated: call Authenticate first")
	ErrMalformedToken     = errors.New("malformed ID token")
	ErrTokenExpired       = errors.New("ID token has expired")
)

func buildUserAgent(app string) string {
	library := strings.TrimSpace("dronemobile-sdk/" + libraryVersion)
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return library
	}
	path := strings.Split(build.Path, "/")
	if len(path) == 0 {
		return library
	}

	if app == "" {
		app = path[len(path)-1]
		var version string
		if build.Main.Version != "(devel)" && build.Main.Version != "" {
			version = build.Main.Version
		} else {
			for _, info := range build.Settings {
				if info.Key == "vcs.revision" {
					if len(info.Value) > 8 {
						version = info.Value[0:8]
					}
					break
				}
			}
		}

		if version != "" {
			app = fmt.Sprintf("%s/%s", app, version)
		}
	}

	return fmt.Sprintf("%s %s", app, library)
}

// Account allows interaction with a DroneMobile account.
type Account struct {
	// The default UserAgent is constructed from build information, but can be overridden.
	UserAgent string

	// Service endpoints. New populates these with production values.
	AuthURL    string
	APIBase    string
	CommandURL string
	ClientID   string

	username string
	password string
	idToken  string
	subject  string
	expiry   time.Time
	client   http.Client
}

// New returns an [Account] for username. The account must be authenticated with
// [Account.Authenticate] or [Account.Resume] before it can be used.
//
// Optional userAgent can be passed in - otherwise it will be generated from code.
func New(username, password, userAgent string) (*Account, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	return &Account{
		UserAgent:  buildUserAgent(userAgent),
		AuthURL:    DefaultAuthURL,
		APIBase:    DefaultAPIBase,
		CommandURL: DefaultCommandURL,
		ClientID:   DefaultClientID,
		username:   username,
		password:   password,
		client:     http.Client{Timeout: DefaultTimeout},
	}, nil
}

// Username returns the login name the account was created with.
func (a *Account) Username() string {
	return a.username
}

// Token returns the current ID token, or "" if the account has not been authenticated.
func (a *Account) Token() string {
	return a.idToken
}

// Subject returns the account's user identifier as reported in its ID token.
func (a *Account) Subject() string {
	return a.subject
}

// Expiry returns when the current ID token stops being accepted.
func (a *Account) Expiry() time.Time {
	return a.expiry
}

type cognitoRequest struct {
	AuthFlow       string            `json:"AuthFlow"`
	ClientID       string            `json:"ClientId"`
	AuthParameters map[string]string `json:"AuthParameters"`
	ClientMetadata map[string]string `json:"ClientMetadata"`
}

type cognitoResponse struct {
	ChallengeName        string `json:"ChallengeName"`
	AuthenticationResult *struct {
		AccessToken  string `json:"AccessToken"`
		ExpiresIn    int    `json:"ExpiresIn"`
		IdToken      string `json:"IdToken"`
		RefreshToken string `json:"RefreshToken"`
		TokenType    string `json:"TokenType"`
	} `json:"AuthenticationResult"`
}

// Authenticate exchanges the account's username and password for an ID token.
func (a *Account) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(cognitoRequest{
		AuthFlow: "USER_PASSWORD_AUTH",
		ClientID: a.ClientID,
		AuthParameters: map[string]string{
			"USERNAME": a.username,
			"PASSWORD": a.password,
		},
		ClientMetadata: map[string]string{},
	})
	if err != nil {
		return err
	}
	log.Debug("Authenticating %s (password %s)...", a.username, log.Mask(a.password))
	headers := map[string]string{
		"Content-Type": "application/x-amz-json-1.1",
		"X-Amz-Target": initiateAuth,
	}
	respBody, err := a.do(ctx, http.MethodPost, a.AuthURL, headers, body)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	var rsp cognitoResponse
	if err := json.Unmarshal(respBody, &rsp); err != nil {
		return fmt.Errorf("unable to parse authentication response: %w", err)
	}
	if rsp.AuthenticationResult == nil {
		if rsp.ChallengeName != "" {
			return fmt.Errorf("authentication challenge %s is not supported", rsp.ChallengeName)
		}
		return fmt.Errorf("authentication response did not include tokens")
	}
	return a.setToken(rsp.AuthenticationResult.IdToken)
}

// Resume authenticates the account using an ID token obtained earlier, avoiding a round-trip to
// the identity provider.
func (a *Account) Resume(token string) error {
	return a.setToken(token)
}

func (a *Account) setToken(token string) error {
	token = strings.TrimSpace(token)
	// The token is issued to us over TLS and verified by the API on every request, so there's no
	// need to check the signature here.
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedToken, err)
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedToken, err)
	}
	var expiry time.Time
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedToken, err)
	}
	if exp != nil {
		expiry = exp.Time
		if !expiry.After(time.Now()) {
			return ErrTokenExpired
		}
	}
	a.idToken = token
	a.subject = subject
	a.expiry = expiry
	log.Debug("Authenticated as %s (token expires %s)", subject, expiry.Format(time.RFC3339))
	return nil
}

func (a *Account) authHeader() (map[string]string, error) {
	if a.idToken == "" {
		return nil, ErrNotAuthenticated
	}
	return map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + a.idToken,
	}, nil
}

// ListVehicles returns the vehicles registered to the account, in the order the service returns
// them.
func (a *Account) ListVehicles(ctx context.Context) ([]vehicle.Record, error) {
	headers, err := a.authHeader()
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/vehicle?limit=%d", strings.TrimSuffix(a.APIBase, "/"), vehicleListLimit)
	body, err := a.do(ctx, http.MethodGet, url, headers, nil)
	if err != nil {
		return nil, err
	}
	return parseVehicleList(body)
}

// The service has returned both a bare array and a paginated object.
func parseVehicleList(body []byte) ([]vehicle.Record, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []vehicle.Record
		if err := decoder.Decode(&records); err != nil {
			return nil, fmt.Errorf("unable to parse vehicle list: %w", err)
		}
		return records, nil
	}
	var page struct {
		Results []vehicle.Record `json:"results"`
	}
	if err := decoder.Decode(&page); err != nil {
		return nil, fmt.Errorf("unable to parse vehicle list: %w", err)
	}
	return page.Results, nil
}

type commandRequest struct {
	DeviceKey string  `json:"deviceKey"`
	Command   Command `json:"command"`
}

// SendCommand sends command to the vehicle identified by deviceKey and returns the service's
// response unmodified.
func (a *Account) SendCommand(ctx context.Context, deviceKey string, command Command) (json.RawMessage, error) {
	headers, err := a.authHeader()
	if err != nil {
		return nil, err
	}
	if deviceKey == "" {
		return nil, fmt.Errorf("device key is required")
	}
	body, err := json.Marshal(commandRequest{DeviceKey: deviceKey, Command: command})
	if err != nil {
		return nil, err
	}
	rsp, err := a.do(ctx, http.MethodPost, a.CommandURL, headers, body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(rsp) {
		return nil, fmt.Errorf("invalid response to %s command: %q", command, truncate(string(rsp)))
	}
	return json.RawMessage(rsp), nil
}

// Start sends a remote start command.
func (a *Account) Start(ctx context.Context, deviceKey string) (json.RawMessage, error) {
	return a.SendCommand(ctx, deviceKey, CommandRemoteStart)
}

func (a *Account) do(ctx context.Context, method, url string, headers map[string]string, data []byte) ([]byte, error) {
	var reader io.Reader
	if data != nil {
		reader = bytes.NewReader(data)
	}
	request, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("error constructing request to %s: %w", url, err)
	}
	log.Debug("Requesting %s %s...", method, url)
	for k, v := range headers {
		request.Header.Set(k, v)
	}
	request.Header.Set("User-Agent", a.UserAgent)
	request.Header.Set("Accept", "application/json")

	response, err := a.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", url, err)
	}
	defer response.Body.Close()

	reader = &io.LimitedReader{R: response.Body, N: MaxResponseLength + 1}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(body) > MaxResponseLength {
		return nil, fmt.Errorf("response from %s exceeds maximum length", url)
	}
	if url == a.AuthURL {
		log.Debug("Server returned %d (%d bytes)", response.StatusCode, len(body))
	} else {
		log.Debug("Server returned %d: %s", response.StatusCode, body)
	}
	if response.StatusCode != http.StatusOK {
		return nil, newHttpError(response.StatusCode, body)
	}
	return body, nil
}
