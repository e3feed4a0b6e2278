// Package server_lists holds the WHOIS server directory: a mapping from
// domain suffixes to server descriptors, plus the distinguished descriptor
// used for IP-address lookups. The on-disk format is the servers.json layout
// used by node-whois: each key is a lowercase suffix ("" is the catch-all),
// each value a bare host string or a {host, query?, punycode?} object, and
// the reserved "_" object carries the "ip" descriptor.
package server_lists

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// MappingError reports a malformed server directory source.
type MappingError struct {
	Reason string
}

func (e *MappingError) Error() string {
	return "server directory: " + e.Reason
}

// Directory is the in-memory server directory. It is built once from a
// config source and is safe for concurrent readers; Insert is the only
// mutation and takes the write lock.
type Directory struct {
	mu       sync.RWMutex
	suffixes map[string]ServerValue
	ip       ServerValue
}

// FromPath reads a servers.json file and builds a Directory.
func FromPath(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(data)
}

// FromBytes builds a Directory from in-memory JSON data. Entries whose value
// is null are dropped; a missing or malformed "_"."ip" entry, or any
// malformed non-null entry, is a MappingError.
func FromBytes(data []byte) (*Directory, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	meta, ok := raw["_"]
	if !ok {
		return nil, &MappingError{Reason: `cannot find "_" in the server list`}
	}
	var metaObj map[string]json.RawMessage
	if err := json.Unmarshal(meta, &metaObj); err != nil {
		return nil, &MappingError{Reason: `"_" in the server list is not an object`}
	}
	ipRaw, ok := metaObj["ip"]
	if !ok {
		return nil, &MappingError{Reason: `cannot find "ip" in the "_" object`}
	}
	if isJSONNull(ipRaw) {
		return nil, &MappingError{Reason: `"ip" in the "_" object is null`}
	}
	ip, err := serverValueFromJSON(ipRaw)
	if err != nil {
		return nil, err
	}

	suffixes := make(map[string]ServerValue, len(raw)-1)
	for key, value := range raw {
		if key == "_" {
			continue
		}
		if isJSONNull(value) {
			// A null entry means "no entry"; lookups fall through to a
			// shorter suffix or the catch-all.
			continue
		}
		sv, err := serverValueFromJSON(value)
		if err != nil {
			if me, ok := err.(*MappingError); ok {
				return nil, &MappingError{Reason: fmt.Sprintf("suffix %q: %s", key, me.Reason)}
			}
			return nil, err
		}
		suffixes[strings.ToLower(key)] = sv
	}

	return &Directory{suffixes: suffixes, ip: ip}, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ForSuffix returns the descriptor for the longest configured suffix of
// domain. It strips the leftmost label until a suffix matches, checking the
// empty catch-all last, and reports false when nothing matches at all.
func (d *Directory) ForSuffix(domain string) (ServerValue, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	suffix := strings.ToLower(domain)
	for {
		if sv, ok := d.suffixes[suffix]; ok {
			return sv, true
		}
		if suffix == "" {
			return ServerValue{}, false
		}
		if i := strings.IndexByte(suffix, '.'); i >= 0 {
			suffix = suffix[i+1:]
		} else {
			suffix = ""
		}
	}
}

// ForIP returns the distinguished descriptor used for all IP lookups. It is
// always present: its absence fails directory construction.
func (d *Directory) ForIP() ServerValue {
	return d.ip
}

// Insert adds or replaces the descriptor for a suffix. Used by dynamic SRV
// discovery to extend the directory at runtime.
func (d *Directory) Insert(suffix string, sv ServerValue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suffixes[strings.ToLower(suffix)] = sv
}

// Suffixes returns the configured suffix keys in sorted order.
func (d *Directory) Suffixes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.suffixes))
	for k := range d.suffixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
