package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	approuters "github.com/khushik17/wee-Chat/internal/app_routers"
	"github.com/khushik17/wee-Chat/internal/configuration"
)

func main() {
	configPath := flag.String("config", "config/config.dev.json", "path to the JSON config file")
	flag.Parse()

	// Secrets (JWT_SECRET, REDIS_URL, ANTHROPIC_API_KEY) come from the
	// environment; .env is a convenience for local runs.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	container, err := configuration.BuildContainer(*configPath)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Ensure cleanup on shutdown
	defer container.Close()

	// Setup routers
	approuters.StartServer(container)
}
