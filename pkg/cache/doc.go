// Package cache allows clients to resume authenticated DroneMobile sessions.
//
// Logging in requires a round-trip to the identity provider, which issues an ID token that stays
// valid for a limited time. Using a [SessionCache] lets a client reuse that token in subsequent
// runs. Entries that have expired (or are about to) are never returned, so a stale cache costs
// nothing more than a normal login.
//
// The same SessionCache may safely hold sessions for several accounts.
//
// Cached ID tokens grant access to the account's vehicles. [SessionCache.ExportToFile] creates
// files readable only by the current user, and callers that use [SessionCache.Export] directly
// should apply similar access controls.
package cache
