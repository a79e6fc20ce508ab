package cache

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// ExpiryMargin is how long before its expiry time an entry stops being returned by
// [SessionCache.Get]. It leaves room for the command that follows.
var ExpiryMargin = time.Minute

// Entry holds the session state for one account.
type Entry struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *Entry) usable(now time.Time) bool {
	if e.Token == "" {
		return false
	}
	return e.ExpiresAt.IsZero() || e.ExpiresAt.After(now.Add(ExpiryMargin))
}

type SessionCache struct {
	MaxEntries int
	Accounts   map[string]Entry `json:"accounts"`
	lock       sync.Mutex
}

// New returns a SessionCache that holds sessions for up to maxEntries accounts. When full, the
// entry that was created longest ago is evicted.
//
// Set maxEntries to zero for an unbounded cache.
func New(maxEntries int) *SessionCache {
	return &SessionCache{
		MaxEntries: maxEntries,
		Accounts:   make(map[string]Entry),
	}
}

// Import a SessionCache using data in r.
// The data should previously have been generated using [SessionCache.Export].
func Import(r io.Reader) (*SessionCache, error) {
	var cache SessionCache
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cache); err != nil {
		return nil, err
	}
	if cache.Accounts == nil {
		cache.Accounts = make(map[string]Entry)
	}
	return &cache, nil
}

// ImportFromFile reads a SessionCache from disk.
func ImportFromFile(filename string) (*SessionCache, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Import(file)
}

// Export writes a serialized SessionCache to w.
func (c *SessionCache) Export(w io.Writer) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	return json.NewEncoder(w).Encode(c)
}

// ExportToFile writes a SessionCache to disk.
func (c *SessionCache) ExportToFile(filename string) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	return c.Export(file)
}

// Update the SessionCache's entry for username. If entry.CreatedAt is zero, it is set to the
// current time.
func (c *SessionCache) Update(username string, entry Entry) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	c.Accounts[username] = entry
	if c.MaxEntries > 0 && len(c.Accounts) > c.MaxEntries {
		oldest := username
		oldestCreationTime := entry.CreatedAt
		for name, e := range c.Accounts {
			if e.CreatedAt.Before(oldestCreationTime) {
				oldest = name
				oldestCreationTime = e.CreatedAt
			}
		}
		delete(c.Accounts, oldest)
	}
}

// Get returns the session for username if one exists and has not expired.
func (c *SessionCache) Get(username string) (Entry, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.Accounts[username]
	if !ok || !entry.usable(time.Now()) {
		return Entry{}, false
	}
	return entry, true
}

// Remove deletes the session for username.
func (c *SessionCache) Remove(username string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.Accounts, username)
}
