//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/himanishpuri/songtag/pkg/logger"
	"github.com/himanishpuri/songtag/pkg/songtag"
	"github.com/himanishpuri/songtag/pkg/songtag/shazam"
)

var (
	port           int
	dbPath         string
	tempDir        string
	history        bool
	endpoint       string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("SONGTAG_DB_PATH", "songtag.sqlite3"), "Path to the tag history database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("SONGTAG_TEMP_DIR", os.TempDir()), "Temporary directory for uploads")
	flag.BoolVar(&history, "history", true, "Remember recognised songs")
	flag.StringVar(&endpoint, "endpoint", getEnvOrDefault("SONGTAG_ENDPOINT", shazam.DefaultBaseURL), "Recognition endpoint")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	client := shazam.NewClient(shazam.WithBaseURL(endpoint))
	service, err := songtag.NewService(
		songtag.WithDBPath(dbPath),
		songtag.WithTempDir(tempDir),
		songtag.WithHistory(history),
		songtag.WithRecognizer(client),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		History:        history,
		AllowedOrigins: origins,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewServer(service, client, config)
	if err := server.Start(ctx); err != nil {
		log.Errorf("Server failed: %v", err)
		return
	}
}
