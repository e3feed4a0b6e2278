// Package handle_resources exposes the resolution engine over HTTP: a raw
// lookup endpoint plus health, readiness and runtime-info endpoints.
package handle_resources

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/KincaidYang/whois-engine/config"
	"github.com/KincaidYang/whois-engine/dns_tools"
	"github.com/KincaidYang/whois-engine/server_lists"
	"github.com/KincaidYang/whois-engine/utils"
	"github.com/KincaidYang/whois-engine/whois_tools"
)

// LookupHandler serves GET /{target}, returning the raw WHOIS response of
// the final (possibly referred-to) server as text/plain.
//
// Query parameters: `server` overrides the directory selection with a bare
// host[:port]; `follow` overrides the referral hop budget.
type LookupHandler struct {
	Client    *whois_tools.Client
	Directory *server_lists.Directory
	// Resolver enables an SRV-discovery retry when no server is known for a
	// domain. May be nil.
	Resolver *dns_tools.Resolver
}

func (h *LookupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	config.ConcurrencyLimiter <- struct{}{}
	config.Wg.Add(1)
	defer func() {
		config.Wg.Done()
		<-config.ConcurrencyLimiter
	}()

	resource := strings.TrimPrefix(r.URL.Path, "/")
	if resource == "" {
		utils.HandleHTTPError(w, utils.ErrorTypeBadRequest, "No domain or IP address given")
		return
	}

	target, err := whois_tools.ParseTarget(resource)
	if err != nil {
		utils.HandleHTTPError(w, utils.ErrorTypeBadRequest, "Invalid domain or IP address: "+resource)
		return
	}

	// Reduce bare hostnames to their registrable domain, so a query for
	// www.example.org asks about example.org.
	if !target.IsIP() {
		if mainDomain, err := publicsuffix.EffectiveTLDPlusOne(target.Domain()); err == nil {
			if reduced, err := whois_tools.ParseTarget(mainDomain); err == nil {
				target = reduced
			}
		}
	}

	opts := whois_tools.NewLookupOptions(target)
	opts.Follow = uint16(config.LookupFollow)
	opts.Timeout = config.LookupTimeout

	if follow := r.URL.Query().Get("follow"); follow != "" {
		n, err := strconv.ParseUint(follow, 10, 16)
		if err != nil {
			utils.HandleHTTPError(w, utils.ErrorTypeBadRequest, "Invalid follow value: "+follow)
			return
		}
		opts.Follow = uint16(n)
	}
	if server := r.URL.Query().Get("server"); server != "" {
		sv, err := server_lists.ServerValueFromString(server)
		if err != nil {
			utils.HandleHTTPError(w, utils.ErrorTypeBadRequest, "Invalid server value: "+server)
			return
		}
		opts.Server = &sv
	}

	result, err := h.Client.LookupContext(r.Context(), opts)
	if errors.Is(err, whois_tools.ErrNoServerKnown) && h.Resolver != nil && !target.IsIP() && opts.Server == nil {
		// The static directory has no entry; try to discover one via SRV
		// and retry once.
		if h.Resolver.Augment(r.Context(), h.Directory, target.Domain()) {
			result, err = h.Client.LookupContext(r.Context(), opts)
		}
	}
	if err != nil {
		handleLookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, result)
}

func handleLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, whois_tools.ErrNoServerKnown) {
		utils.HandleHTTPError(w, utils.ErrorTypeNotFound, "No WHOIS server known for this object")
		return
	}
	utils.HandleHTTPError(w, utils.ErrorTypeGatewayTimeout, err.Error())
}
