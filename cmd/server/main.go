package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reflection-audio/internal/platform/config"
	"reflection-audio/internal/platform/logger"
	"reflection-audio/internal/platform/metrics"
	"reflection-audio/internal/reflection"
	"reflection-audio/internal/storage"

	"github.com/go-chi/chi/v5"
)

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	uploadDir := config.GetEnv("UPLOAD_DIR", "uploads")
	publicBase := config.GetEnv("PUBLIC_BASE_URL", "")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	shutdownTimeout := time.Duration(config.GetEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second

	log := logger.New(logLevel, logFormat)

	store, err := storage.NewDiskStore(uploadDir)
	if err != nil {
		log.Error("creating upload directory failed", "dir", uploadDir, "error", err)
		os.Exit(1)
	}

	met := metrics.New()
	audioH := storage.NewHandler(store, log, met, publicBase)
	refRepo := reflection.NewInMemoryRepository()
	refH := reflection.NewHandler(refRepo, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetStoredObjects(store.Count()) }).ServeHTTP(w, r)
	})
	r.Post("/api/upload-audio", audioH.UploadAudio)
	r.Get("/uploads/{filename}", audioH.ServeAudio)
	r.Route("/api/reflections", func(r chi.Router) {
		r.Post("/", refH.Create)
		r.Get("/", refH.List)
		r.Post("/{id}/audio", refH.AttachAudio)
	})

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"upload_dir", uploadDir,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
