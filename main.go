package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KincaidYang/whois-engine/config"
	"github.com/KincaidYang/whois-engine/dns_tools"
	"github.com/KincaidYang/whois-engine/handle_resources"
	"github.com/KincaidYang/whois-engine/mcp_tools"
	"github.com/KincaidYang/whois-engine/server_lists"
	"github.com/KincaidYang/whois-engine/whois_tools"
)

func main() {
	directory, err := server_lists.FromPath(config.ServersFile)
	if err != nil {
		log.Fatalf("Failed to load server directory from %s: %v", config.ServersFile, err)
	}
	log.Printf("Loaded %d suffix entries from %s\n", len(directory.Suffixes()), config.ServersFile)
	handle_resources.RegisterDirectory(directory)

	client := whois_tools.NewClient(directory)

	var resolver *dns_tools.Resolver
	if config.DNSEnabled {
		resolver = dns_tools.NewResolver(config.DNSServer, config.CacheManager, config.CacheExpiration)
		log.Printf("SRV discovery enabled via %s\n", config.DNSServer)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", handle_resources.HandleHealth)
	mux.HandleFunc("/ready", handle_resources.HandleReady)
	mux.HandleFunc("/info", handle_resources.HandleInfo)
	if config.MCPEnabled {
		mux.Handle("/mcp", mcp_tools.NewHandler(client))
	}
	mux.Handle("/", &handle_resources.LookupHandler{
		Client:    client,
		Directory: directory,
		Resolver:  resolver,
	})

	go func() {
		fmt.Printf("Server is listening on port %d...\n", config.Port)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", config.Port), mux); err != nil {
			fmt.Println("Server failed to start:", err)
			os.Exit(1)
		}
	}()

	// Wait for a shutdown signal, then let in-flight lookups drain before
	// exiting.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Received shutdown signal, waiting for in-flight lookups to complete...")
	config.Wg.Wait()

	log.Println("All lookups completed. Shutting down server...")
	config.RedisClient.Close()
}
