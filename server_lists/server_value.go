package server_lists

import (
	"encoding/json"
	"fmt"
)

// DefaultQuery is the query template used when a server entry does not
// declare its own. The `$addr` placeholder is replaced with the query text.
const DefaultQuery = "$addr\r\n"

const defaultPunycode = true

// ServerValue describes one WHOIS server: where to connect, how to format
// the query line, and whether the query text should be punycode-encoded.
// ServerValues are plain values; they are never shared mutably.
type ServerValue struct {
	Host     Host
	Query    string // query template with a $addr placeholder; "" means DefaultQuery
	Punycode bool
}

// ServerValueFromString builds a ServerValue from a bare `host[:port]`
// string, as found in referral lines, taking the default query template and
// punycode policy.
func ServerValueFromString(s string) (ServerValue, error) {
	host, err := ParseHost(s)
	if err != nil {
		return ServerValue{}, err
	}
	return ServerValue{Host: host, Punycode: defaultPunycode}, nil
}

// serverValueFromJSON parses a directory entry: either a bare host string or
// an object of the shape {host, query?, punycode?}.
func serverValueFromJSON(raw json.RawMessage) (ServerValue, error) {
	var hostString string
	if err := json.Unmarshal(raw, &hostString); err == nil {
		sv, err := ServerValueFromString(hostString)
		if err != nil {
			return ServerValue{}, &MappingError{Reason: fmt.Sprintf("entry %q is not a valid host string", hostString)}
		}
		return sv, nil
	}

	var obj struct {
		Host     *string `json:"host"`
		Query    *string `json:"query"`
		Punycode *bool   `json:"punycode"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ServerValue{}, &MappingError{Reason: "entry is not a host string or a server object"}
	}
	if obj.Host == nil {
		return ServerValue{}, &MappingError{Reason: "server object has no host string"}
	}

	host, err := ParseHost(*obj.Host)
	if err != nil {
		return ServerValue{}, &MappingError{Reason: fmt.Sprintf("server object host %q is not a valid host string", *obj.Host)}
	}

	sv := ServerValue{Host: host, Punycode: defaultPunycode}
	if obj.Query != nil {
		sv.Query = *obj.Query
	}
	if obj.Punycode != nil {
		sv.Punycode = *obj.Punycode
	}
	return sv, nil
}
