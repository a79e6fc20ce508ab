// Package vehicle describes vehicles registered to a DroneMobile account.
//
// The service does not publish a schema for vehicle records, and different API versions have
// spelled the same field in different ways. A [Record] is therefore kept as an untyped mapping, and
// helpers such as [DeviceKey] normalize the lookups that commands depend on.
package vehicle

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Record is a single vehicle as returned by the account's vehicle listing.
type Record map[string]any

// DeviceKeyFields lists the field names that have been observed to hold the device key, in the
// order they are checked.
var DeviceKeyFields = []string{"device_key", "deviceKey", "deviceID", "device_id"}

var nameFields = []string{"name", "vehicle_name", "nickname"}

// ErrDeviceKeyNotFound is matched (using errors.Is) by the error DeviceKey returns when a record
// has no usable device key.
var ErrDeviceKeyNotFound = errors.New("device key not found")

// KeyNotFoundError reports the keys that were present on a record without a device key.
type KeyNotFoundError struct {
	Keys []string
}

func (e *KeyNotFoundError) Error() string {
	quoted := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		quoted[i] = "'" + k + "'"
	}
	return fmt.Sprintf("Device key not found in vehicle info: [%s]", strings.Join(quoted, ", "))
}

func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrDeviceKeyNotFound
}

// DeviceKey returns the identifier the service uses to address commands to r.
//
// The first field in DeviceKeyFields that is present with a truthy value wins, even if a later
// field is also set.
func DeviceKey(r Record) (string, error) {
	for _, field := range DeviceKeyFields {
		if v, ok := r[field]; ok && Truthy(v) {
			return stringify(v), nil
		}
	}
	return "", &KeyNotFoundError{Keys: r.Keys()}
}

// Keys returns the record's field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the value of key rendered as a string, or "" if key is absent or falsy.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || !Truthy(v) {
		return ""
	}
	return stringify(v)
}

// Name returns a human-readable label for the vehicle, if the record carries one.
func (r Record) Name() string {
	for _, field := range nameFields {
		if s := r.String(field); s != "" {
			return s
		}
	}
	return ""
}

// Truthy reports whether v should be treated as set. Nil, false, empty strings, numeric zero, and
// empty collections are not.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x != ""
		}
		return f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}
