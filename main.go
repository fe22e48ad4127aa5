package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gaitsense-pipeline/gaitcore"
	"gaitsense-pipeline/ingest"
	"gaitsense-pipeline/storage"
)

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := LoadAppConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	processor, err := gaitcore.NewProcessor(cfg.pipelineConfig())
	if err != nil {
		log.Fatalf("Failed to build processor: %v", err)
	}

	store := storage.NewSessionStore(cfg.Storage.MaxSessions)
	telemetry := gaitcore.NewTelemetryBuffers(cfg.Telemetry.BufferLen)

	var csvWriter *storage.CSVWriter
	if cfg.Storage.EnableCSV {
		csvWriter, err = storage.NewCSVWriter(cfg.Storage.StepsCSV, cfg.Storage.SummariesCSV)
		if err != nil {
			log.Printf("[WARN] CSV output disabled: %v", err)
		} else {
			defer csvWriter.Close()
		}
	}

	log.Printf("[ingest] Initializing collector...")
	collector := ingest.NewCollector(cfg.ingestConfig(), cfg.Pipeline.SamplingRate, cfg.gyroUnit())
	if err := collector.Start(); err != nil {
		log.Printf("[WARN] Collector failed to start: %v", err)
		log.Printf("[WARN] Running without live sensor data")
	} else {
		defer collector.Stop()
	}

	server := NewAPIServer(store, telemetry, collector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Processing loop: each assembled session runs through the full
	// chain, then fans out to storage, telemetry and live clients.
	go func() {
		for input := range collector.Sessions() {
			res, err := processor.ProcessSession(ctx, *input)
			if err != nil {
				log.Printf("[pipeline] Session %s rejected: %v", input.SessionID, err)
				continue
			}
			store.Push(res)
			telemetry.PushResult(res)
			if csvWriter != nil {
				csvWriter.WriteResult(res)
			}
			server.Broadcast(res)
			log.Printf("[pipeline] Session %s %s: %d steps, cadence %.1f",
				res.Summary.SessionID, res.Summary.Status,
				res.Summary.StepCount, res.Summary.Cadence)
		}
	}()

	mux := http.NewServeMux()
	server.Routes(mux)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Printf("[api] Serving at http://localhost%s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Printf("Shutting down...")
	cancel()
	httpServer.Shutdown(context.Background())
}
