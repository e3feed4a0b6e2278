package config

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/KincaidYang/whois-engine/utils"
)

// discardLogger suppresses the Redis client's internal logging; connection
// failures are already reported through the cache health checks.
type discardLogger struct{}

func (l *discardLogger) Printf(ctx context.Context, format string, v ...interface{}) {}

var (
	// Version information - read from build info (Go 1.18+)
	Version   string
	BuildTime string
	GitCommit string

	// RedisClient is the Redis client backing the discovery store.
	RedisClient *redis.Client
	// CacheManager is the Redis-primary/memory-fallback store for
	// dynamically discovered WHOIS servers.
	CacheManager utils.Cache
	// CacheExpiration is how long discovered servers are kept.
	CacheExpiration time.Duration

	// Wg tracks in-flight lookups for graceful shutdown.
	Wg sync.WaitGroup

	// ServersFile is the path of the server directory source.
	ServersFile string
	// Port is the port the HTTP server listens on.
	Port int
	// RateLimit bounds the number of in-flight lookups.
	RateLimit          int
	ConcurrencyLimiter chan struct{}

	// LookupFollow is the default referral hop budget.
	LookupFollow int
	// LookupTimeout is the default per-phase timeout at each hop.
	LookupTimeout time.Duration

	// DNSEnabled turns on SRV discovery for unlisted suffixes.
	DNSEnabled bool
	// DNSServer is the resolver address used for SRV discovery.
	DNSServer string

	// RequireRedis refuses to start when Redis is unavailable.
	RequireRedis        bool
	MemoryMaxSize       int
	MemoryCleanInterval time.Duration

	// MCPEnabled mounts the MCP tool surface at /mcp.
	MCPEnabled bool
)

func init() {
	initVersionInfo()

	var config Config
	loadConfigFromFile(&config)
	overrideConfigWithEnv(&config)
	applyDefaults(&config)

	RedisClient = redis.NewClient(&redis.Options{
		Addr:            config.Redis.Addr,
		Password:        config.Redis.Password,
		DB:              config.Redis.DB,
		PoolSize:        10,
		MaxRetries:      1,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     2 * time.Second,
		ReadTimeout:     2 * time.Second,
		WriteTimeout:    2 * time.Second,
		PoolTimeout:     2 * time.Second,
	})
	redis.SetLogger(&discardLogger{})

	ServersFile = config.ServersFile
	Port = config.Port
	RateLimit = config.RateLimit
	ConcurrencyLimiter = make(chan struct{}, RateLimit)

	LookupFollow = config.Lookup.Follow
	LookupTimeout = time.Duration(config.Lookup.TimeoutSeconds) * time.Second

	DNSEnabled = config.DNS.Enabled
	DNSServer = config.DNS.Server
	CacheExpiration = time.Duration(config.DNS.CacheExpiration) * time.Second

	RequireRedis = config.Cache.RequireRedis
	MemoryMaxSize = config.Cache.MemoryMaxSize
	MemoryCleanInterval = time.Duration(config.Cache.MemoryCleanInterval) * time.Second

	MCPEnabled = config.MCP.Enabled

	initializeCacheManager()
}

func applyDefaults(config *Config) {
	if config.ServersFile == "" {
		config.ServersFile = "servers.json"
	}
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.RateLimit == 0 {
		config.RateLimit = 50
	}
	if config.Lookup.Follow == 0 {
		config.Lookup.Follow = 2
	}
	if config.Lookup.TimeoutSeconds == 0 {
		config.Lookup.TimeoutSeconds = 60
	}
	if config.DNS.Server == "" {
		config.DNS.Server = "1.1.1.1:53"
	}
	if config.DNS.CacheExpiration == 0 {
		config.DNS.CacheExpiration = 3600
	}
	if config.Cache.MemoryMaxSize == 0 {
		config.Cache.MemoryMaxSize = 10000
	}
	if config.Cache.MemoryCleanInterval == 0 {
		config.Cache.MemoryCleanInterval = 300
	}
}

// initializeCacheManager sets up the discovery store with Redis primary and
// memory fallback.
func initializeCacheManager() {
	redisCache := utils.NewRedisCache(RedisClient)
	memoryCache := utils.NewMemoryCache(MemoryMaxSize, MemoryCleanInterval)
	CacheManager = utils.NewFallbackCache(redisCache, memoryCache)

	if redisCache.IsHealthy() {
		log.Println("Redis discovery store initialized")
	} else {
		if RequireRedis {
			log.Fatal("Redis is required but unavailable. Set cache.requireRedis to false to allow fallback.")
		}
		log.Println("Redis unavailable, using memory fallback for discovered servers")
	}
}

func loadConfigFromFile(config *Config) {
	configFile, err := os.Open("config.yaml")
	if err != nil {
		configFile, err = os.Open("config.json")
		if err != nil {
			log.Println("No configuration file found, using built-in defaults")
			return
		}
	}
	defer configFile.Close()

	switch strings.ToLower(filepath.Ext(configFile.Name())) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(configFile).Decode(config); err != nil {
			log.Fatalf("Failed to decode YAML from configuration file: %v", err)
		}
	case ".json":
		if err := json.NewDecoder(configFile).Decode(config); err != nil {
			log.Fatalf("Failed to decode JSON from configuration file: %v", err)
		}
	}
}

func overrideConfigWithEnv(config *Config) {
	if serversFile := os.Getenv("WHOIS_SERVERS_FILE"); serversFile != "" {
		config.ServersFile = serversFile
	}
	if port := os.Getenv("WHOIS_PORT"); port != "" {
		if portInt, err := strconv.Atoi(port); err == nil {
			config.Port = portInt
		}
	}
	if rateLimit := os.Getenv("WHOIS_RATE_LIMIT"); rateLimit != "" {
		if rateInt, err := strconv.Atoi(rateLimit); err == nil {
			config.RateLimit = rateInt
		}
	}

	if follow := os.Getenv("WHOIS_LOOKUP_FOLLOW"); follow != "" {
		if followInt, err := strconv.Atoi(follow); err == nil {
			config.Lookup.Follow = followInt
		}
	}
	if timeout := os.Getenv("WHOIS_LOOKUP_TIMEOUT"); timeout != "" {
		if timeoutInt, err := strconv.Atoi(timeout); err == nil {
			config.Lookup.TimeoutSeconds = timeoutInt
		}
	}

	if enabled := os.Getenv("WHOIS_DNS_ENABLED"); enabled != "" {
		config.DNS.Enabled = enabled == "true" || enabled == "1"
	}
	if server := os.Getenv("WHOIS_DNS_SERVER"); server != "" {
		config.DNS.Server = server
	}
	if expiration := os.Getenv("WHOIS_DNS_CACHE_EXPIRATION"); expiration != "" {
		if expirationInt, err := strconv.Atoi(expiration); err == nil {
			config.DNS.CacheExpiration = expirationInt
		}
	}

	if redisAddr := os.Getenv("WHOIS_REDIS_ADDR"); redisAddr != "" {
		config.Redis.Addr = redisAddr
	}
	if redisPassword := os.Getenv("WHOIS_REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if redisDB := os.Getenv("WHOIS_REDIS_DB"); redisDB != "" {
		if dbInt, err := strconv.Atoi(redisDB); err == nil {
			config.Redis.DB = dbInt
		}
	}

	if requireRedis := os.Getenv("WHOIS_REQUIRE_REDIS"); requireRedis != "" {
		config.Cache.RequireRedis = requireRedis == "true" || requireRedis == "1"
	}
	if memoryMaxSize := os.Getenv("WHOIS_MEMORY_MAX_SIZE"); memoryMaxSize != "" {
		if maxSize, err := strconv.Atoi(memoryMaxSize); err == nil {
			config.Cache.MemoryMaxSize = maxSize
		}
	}
	if memoryCleanInterval := os.Getenv("WHOIS_MEMORY_CLEAN_INTERVAL"); memoryCleanInterval != "" {
		if interval, err := strconv.Atoi(memoryCleanInterval); err == nil {
			config.Cache.MemoryCleanInterval = interval
		}
	}

	if mcpEnabled := os.Getenv("WHOIS_MCP_ENABLED"); mcpEnabled != "" {
		config.MCP.Enabled = mcpEnabled == "true" || mcpEnabled == "1"
	}
}

// initVersionInfo reads version information from Go build info
// This works automatically with `go build` (Go 1.18+)
func initVersionInfo() {
	Version = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if len(setting.Value) >= 7 {
				GitCommit = setting.Value[:7] // short commit hash
			} else {
				GitCommit = setting.Value
			}
		case "vcs.time":
			BuildTime = setting.Value
		case "vcs.modified":
			if setting.Value == "true" {
				GitCommit += "-dirty"
			}
		}
	}
}
