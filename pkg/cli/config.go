/*
Package cli facilitates building command-line applications for DroneMobile accounts. It defines a
[Config] type that gathers credentials from environment variables, command-line flags (using the
Golang flag package), the system keyring, and interactive prompts.

The package uses [keyring]'s platform-agnostic interface for storing account passwords in an
OS-dependent credential store.

# Examples

	import flag

	config := NewConfig(FlagAll)
	config.RegisterCommandLineFlags() // Adds command-line flags for keyring, session cache, etc.
	flag.Parse()
	config.ReadFromEnvironment()      // Fills in missing fields using environment variables

	// Resumes a cached session if possible, otherwise logs in and updates the cache.
	acct, err := config.Account(ctx)
	if err != nil {
		panic(err)
	}

A Config created with no flags only reads DRONEMOBILE_USERNAME and DRONEMOBILE_PASSWORD:

	config := NewConfig(0)
	config.ReadFromEnvironment()
	username, password, err := config.Credentials()
*/
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/dronectl/remote-start/internal/log"
	"github.com/dronectl/remote-start/pkg/account"
	"github.com/dronectl/remote-start/pkg/cache"

	"github.com/99designs/keyring"
)

// Environment variable names used are used by [Config.ReadFromEnvironment] to set common parameters.
const (
	EnvUsername     = "DRONEMOBILE_USERNAME"
	EnvPassword     = "DRONEMOBILE_PASSWORD"
	EnvDeviceKey    = "DRONEMOBILE_DEVICE_KEY"
	EnvCacheFile    = "DRONEMOBILE_CACHE_FILE"
	EnvVerbose      = "DRONEMOBILE_VERBOSE"
	EnvKeyringType  = "DRONEMOBILE_KEYRING_TYPE"
	EnvKeyringPass  = "DRONEMOBILE_KEYRING_PASSWORD"
	EnvKeyringPath  = "DRONEMOBILE_KEYRING_PATH"
	EnvKeyringDebug = "DRONEMOBILE_KEYRING_DEBUG"
)

// Flag controls what options should be scanned from the command line and/or environment variables.
type Flag int

func (f Flag) isSet(other Flag) bool {
	return (f & other) == other
}

const (
	FlagKeyring      Flag = 1 // Enable loading the password from the system keyring.
	FlagPrompt       Flag = 2 // Enable prompting for the password on a terminal.
	FlagSessionCache Flag = 4 // Enable the session cache option.
	FlagDeviceKey    Flag = 8 // Enable the device key option.
	FlagAll          Flag = FlagKeyring | FlagPrompt | FlagSessionCache | FlagDeviceKey
)

var (
	ErrMissingCredentials = errors.New("username and password must be provided")
	ErrKeyNotFound        = keyring.ErrKeyNotFound
)

// Config fields determine how a client authenticates to DroneMobile.
type Config struct {
	Flags         Flag // Controls which set of environment variables/CLI flags to use.
	Username      string
	Password      string
	DeviceKey     string
	CacheFilename string
	Backend       keyring.Config
	BackendType   backendType
	Debug         bool // Enable keyring debug messages
	Verbose       bool // Enable debug logging

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)

	keyringPassword *string
	sessions        *cache.SessionCache
	acct            *account.Account
}

func NewConfig(flags Flag) *Config {
	c := Config{
		Flags:     flags,
		LookupEnv: os.LookupEnv,
		Backend: keyring.Config{
			ServiceName:              keyringServiceName,
			KeychainTrustApplication: true,
			KeyCtlScope:              "user",
		},
	}
	c.BackendType = backendType{&c}
	c.Backend.KeychainPasswordFunc = c.getPassword
	c.Backend.FilePasswordFunc = c.getPassword
	return &c
}

func (c *Config) getenv(key string) string {
	value, _ := c.LookupEnv(key)
	return value
}

// RegisterCommandLineFlags adds options enabled by c.Flags to the default flag set.
func (c *Config) RegisterCommandLineFlags() {
	c.RegisterFlags(flag.CommandLine)
}

// RegisterFlags adds options enabled by c.Flags to fs. Passwords cannot be given as flags.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	if c.Flags == 0 {
		return
	}
	fs.StringVar(&c.Username, "username", "", "DroneMobile account `email`. Defaults to $"+EnvUsername+".")
	if c.Flags.isSet(FlagDeviceKey) {
		fs.StringVar(&c.DeviceKey, "device-key", "", "Device `key` of the vehicle to control. Defaults to $"+EnvDeviceKey+", then the first vehicle.")
	}
	if c.Flags.isSet(FlagSessionCache) {
		fs.StringVar(&c.CacheFilename, "session-cache", "", "Load session cache from `file`. Defaults to $"+EnvCacheFile+".")
	}
	if c.Flags.isSet(FlagKeyring) {
		var names []string
		for _, name := range keyring.AvailableBackends() {
			names = append(names, string(name))
		}
		sort.Strings(names)
		fs.Var(&c.BackendType, "keyring-type", "Keyring `type` ("+strings.Join(names, "|")+"). Defaults to $"+EnvKeyringType+".")
		fs.StringVar(&c.Backend.FileDir, "keyring-file-dir", "", "keyring `directory` for file-backed keyring types. Defaults to $"+EnvKeyringPath+", then "+keyringDirectory+".")
		fs.BoolVar(&c.Debug, "keyring-debug", false, "Enable keyring debug logging")
	}
}

// ReadFromEnvironment populates c using environment variables. Values that are already populated
// are not overwritten.
//
// Calling ReadFromEnvironment after flag.Parse() (or other initialization method) will prevent the
// environment from overriding explicit command-line parameters.
func (c *Config) ReadFromEnvironment() {
	if c.LookupEnv == nil {
		c.LookupEnv = os.LookupEnv
	}
	if c.Username == "" {
		c.Username = c.getenv(EnvUsername)
		log.Debug("Set username to '%s'", c.Username)
	}
	if c.Password == "" {
		c.Password = c.getenv(EnvPassword)
		if c.Password != "" {
			log.Debug("Set password to %s", log.Mask(c.Password))
		}
	}
	if !c.Verbose {
		if verbose, ok := c.LookupEnv(EnvVerbose); ok {
			c.Verbose = verbose != "false" && verbose != "0"
		}
	}
	if c.Flags.isSet(FlagDeviceKey) && c.DeviceKey == "" {
		c.DeviceKey = c.getenv(EnvDeviceKey)
		log.Debug("Set device key to '%s'", c.DeviceKey)
	}
	if c.Flags.isSet(FlagSessionCache) && c.CacheFilename == "" {
		c.CacheFilename = c.getenv(EnvCacheFile)
		log.Debug("Set session cache file to '%s'", c.CacheFilename)
	}
	if c.Flags.isSet(FlagKeyring) {
		if c.BackendType.String() == string(keyring.InvalidBackend) {
			if err := c.BackendType.Set(c.getenv(EnvKeyringType)); err == nil {
				log.Debug("Set keyring type to '%s'", c.BackendType)
			}
		}
		if c.keyringPassword == nil {
			password := c.getenv(EnvKeyringPass)
			c.keyringPassword = &password
			if len(password) > 0 {
				log.Debug("Set keyring File Password to %s", log.Mask(password))
			}
		}
		if c.Backend.FileDir == "" {
			c.Backend.FileDir = c.getenv(EnvKeyringPath)
			if c.Backend.FileDir == "" {
				c.Backend.FileDir = keyringDirectory
			}
			log.Debug("Set keyring File Path to '%s'", c.Backend.FileDir)
		}
		if !c.Debug {
			_, c.Debug = c.LookupEnv(EnvKeyringDebug)
			log.Debug("Set keyring Debug Logging to '%v'", c.Debug)
		}
		keyring.Debug = c.Debug
	}
}

// Credentials returns the account username and password.
//
// The password is taken from the environment or flags if set. Otherwise it is loaded from the
// system keyring (FlagKeyring) or read from the terminal (FlagPrompt), in that order.
func (c *Config) Credentials() (username, password string, err error) {
	if c.Username == "" {
		return "", "", ErrMissingCredentials
	}
	if c.Password != "" {
		return c.Username, c.Password, nil
	}
	if c.Flags.isSet(FlagKeyring) {
		password, err = c.LoadPasswordFromKeyring()
		if err == nil && password != "" {
			c.Password = password
			return c.Username, c.Password, nil
		}
		log.Debug("Password not loaded from keyring: %s", err)
		if !c.Flags.isSet(FlagPrompt) {
			return "", "", fmt.Errorf("%w: %s", ErrMissingCredentials, err)
		}
	}
	if c.Flags.isSet(FlagPrompt) {
		password, err = ReadPassword(fmt.Sprintf("DroneMobile password for %s", c.Username))
		if err != nil {
			return "", "", err
		}
		if password == "" {
			return "", "", ErrMissingCredentials
		}
		c.Password = password
		return c.Username, c.Password, nil
	}
	return "", "", ErrMissingCredentials
}

func (c *Config) loadCache() error {
	if c.CacheFilename == "" || c.sessions != nil {
		return nil
	}
	log.Debug("Loading cache from %s...", c.CacheFilename)
	var err error
	c.sessions, err = cache.ImportFromFile(c.CacheFilename)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load session cache: %s", err)
		}
		// Create a new cache if one couldn't be loaded from the file
		c.sessions = cache.New(0)
	}
	return nil
}

// Account logs into and returns the configured DroneMobile account.
//
// If a session cache is configured and holds an unexpired token for the account, no login request
// is made. Otherwise the account is authenticated and the cache updated.
func (c *Config) Account(ctx context.Context) (*account.Account, error) {
	if c.acct != nil {
		return c.acct, nil
	}
	username, password, err := c.Credentials()
	if err != nil {
		return nil, err
	}
	acct, err := account.New(username, password, "")
	if err != nil {
		return nil, err
	}
	if err := c.loadCache(); err != nil {
		return nil, err
	}
	if c.sessions != nil {
		if entry, ok := c.sessions.Get(username); ok {
			err := acct.Resume(entry.Token)
			if err == nil {
				log.Debug("Resumed cached session for %s", username)
				c.acct = acct
				return acct, nil
			}
			log.Warning("Discarding cached session for %s: %s", username, err)
			c.sessions.Remove(username)
		}
	}
	if err := acct.Authenticate(ctx); err != nil {
		return nil, err
	}
	c.acct = acct
	c.UpdateCachedSession(acct)
	return acct, nil
}

// UpdateCachedSession writes acct's session to c.CacheFilename.
//
// If c.CacheFilename is not set or acct is not authenticated, then this method does nothing.
func (c *Config) UpdateCachedSession(acct *account.Account) {
	if c.CacheFilename == "" || acct == nil || acct.Token() == "" {
		return
	}
	if err := c.loadCache(); err != nil {
		log.Error("Error updating cache: %s", err)
		return
	}
	c.sessions.Update(acct.Username(), cache.Entry{
		Token:     acct.Token(),
		Subject:   acct.Subject(),
		ExpiresAt: acct.Expiry(),
	})
	if err := c.sessions.ExportToFile(c.CacheFilename); err != nil {
		log.Error("Error updating cache: %s", err)
	}
}

// ForgetCachedSession removes the account's session from c.CacheFilename, for example after the
// service rejected it.
func (c *Config) ForgetCachedSession() {
	if c.sessions == nil || c.CacheFilename == "" {
		return
	}
	c.sessions.Remove(c.Username)
	c.acct = nil
	if err := c.sessions.ExportToFile(c.CacheFilename); err != nil {
		log.Error("Error updating cache: %s", err)
	}
}
