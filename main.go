package main

import (
	"log"
	"os"

	"goqv/internal/config"
	"goqv/ui"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	serverCfg := config.LoadServer()

	// Widths come from an experiment config file when one is set, otherwise
	// the canonical width 3-6 benchmark layout.
	expCfg := config.DefaultExperiment()
	if path := os.Getenv("GOQV_EXPERIMENT"); path != "" {
		var err error
		expCfg, err = config.LoadExperimentFile(path)
		if err != nil {
			log.Fatalf("Failed to load experiment config: %v", err)
		}
		log.Printf("Loaded experiment config from %s", path)
	}

	widths, err := expCfg.WidthConfig()
	if err != nil {
		log.Fatalf("Invalid width configuration: %v", err)
	}

	server, err := ui.NewServer(ui.Config{
		Addr:    serverCfg.Addr,
		GinMode: serverCfg.GinMode,
		Widths:  widths,
	})
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	log.Printf("Starting quantum volume report server on %s", serverCfg.Addr)
	log.Fatal(server.Start())
}
