package config

// Config is the on-disk configuration for the resolver service.
type Config struct {
	// ServersFile is the path to the WHOIS server directory (servers.json).
	ServersFile string `json:"serversFile" yaml:"serversFile"`
	// Port is the port number the HTTP server listens on.
	Port int `json:"port" yaml:"port"`
	// RateLimit is the maximum number of in-flight lookups.
	RateLimit int `json:"rateLimit" yaml:"rateLimit"`

	// Lookup holds the per-call resolution defaults.
	Lookup struct {
		// Follow is the number of referrals to chase per lookup.
		Follow int `json:"follow" yaml:"follow"`
		// TimeoutSeconds bounds connect, write and read at each hop.
		// Zero disables deadlines.
		TimeoutSeconds int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	} `json:"lookup" yaml:"lookup"`

	// DNS configures SRV-based discovery of servers for unlisted suffixes.
	DNS struct {
		Enabled bool   `json:"enabled" yaml:"enabled"`
		Server  string `json:"server" yaml:"server"`
		// CacheExpiration is how long discovered servers are kept, in seconds.
		CacheExpiration int `json:"cacheExpiration" yaml:"cacheExpiration"`
	} `json:"dns" yaml:"dns"`

	// Redis holds the connection settings for the discovery store.
	Redis struct {
		Addr     string `json:"addr" yaml:"addr"`
		Password string `json:"password" yaml:"password"`
		DB       int    `json:"db" yaml:"db"`
	} `json:"redis" yaml:"redis"`

	// Cache tunes the Redis-primary/memory-fallback store.
	Cache struct {
		RequireRedis        bool `json:"requireRedis" yaml:"requireRedis"`
		MemoryMaxSize       int  `json:"memoryMaxSize" yaml:"memoryMaxSize"`
		MemoryCleanInterval int  `json:"memoryCleanInterval" yaml:"memoryCleanInterval"`
	} `json:"cache" yaml:"cache"`

	// MCP enables the Model Context Protocol tool surface at /mcp.
	MCP struct {
		Enabled bool `json:"enabled" yaml:"enabled"`
	} `json:"mcp" yaml:"mcp"`
}
