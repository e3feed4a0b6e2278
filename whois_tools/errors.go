package whois_tools

import "errors"

// ErrNoServerKnown is returned when a domain's suffix chain has no directory
// entry and no server override was supplied. The caller must provide an
// override or extend the directory (e.g. via SRV discovery) and retry.
var ErrNoServerKnown = errors.New("no whois server is known for this kind of object")
