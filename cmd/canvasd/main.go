package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/driftboard/canvas/backend-go/internal/archive"
	"github.com/driftboard/canvas/backend-go/internal/asset"
	"github.com/driftboard/canvas/backend-go/internal/collab"
	"github.com/driftboard/canvas/backend-go/internal/config"
	"github.com/driftboard/canvas/backend-go/internal/document"
)

// sampleDocumentID opens with the demo scene instead of an empty one.
const sampleDocumentID = "sample"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Documents live in memory for the life of the process.
	docLoader := func(documentID string) (*document.Document, error) {
		if documentID == sampleDocumentID {
			return document.NewSampleDocument(), nil
		}
		return document.New(documentID), nil
	}

	hub := collab.NewHub(cfg.Engine, docLoader)
	go hub.Run(ctx)

	collabHandler := collab.NewHandler(hub, cfg.Origins())
	assetHandler := asset.NewHandler(cfg.AssetDir)
	archiveHandler := archive.NewHandler(hub, assetHandler, cfg.ArchiveMaxBytes)

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix(asset.URLPrefix).Handler(assetHandler.Serve()).Methods("GET")

	r.HandleFunc("/documents/{documentId}", collabHandler.GetDocument).Methods("GET")
	r.HandleFunc("/documents/{documentId}/display", collabHandler.GetDisplayList).Methods("GET")
	r.HandleFunc("/documents/{documentId}/archive", archiveHandler.Export).Methods("GET")
	r.HandleFunc("/documents/{documentId}/archive", archiveHandler.Import).Methods("POST")

	r.HandleFunc("/ws/documents/{documentId}", collabHandler.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
