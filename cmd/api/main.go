package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"leadflow/agent"
	"leadflow/auth"
	"leadflow/cache"
	"leadflow/classify"
	"leadflow/db"
	"leadflow/lead"
	"leadflow/llm"
	"leadflow/pipeline"
	"leadflow/sheets"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProductionConfig().Build()
	if err != nil {
		os.Stderr.WriteString("bootstrap logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connString := os.Getenv("DATABASE_URL")
	pool, err := db.NewPool(ctx, connString, db.PoolOptions{})
	if err != nil {
		return err
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	client, err := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
	})
	if err != nil {
		return err
	}

	// One cache serves both layers; the key prefixes keep them apart.
	memo := cache.NewTTL()

	leadService := lead.NewService(pool, lead.NewRepository(pool))
	classifier := classify.New(client, memo)
	dispatcher := agent.NewDispatcher(client, agent.NewActivityRepository(pool), memo, logger)
	authService := auth.NewService(auth.NewRepository(pool), jwtSecret)

	mirror, err := buildMirror(ctx, logger)
	if err != nil {
		return err
	}

	processor := pipeline.NewProcessor(leadService, classifier, dispatcher, mirror, logger)

	srv := newServer(processor, leadService, authService, pool.Ping, logger)

	addr := ":" + envOr("PORT", "8080")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildMirror wires the spreadsheet mirror when credentials are configured.
// Without them the mirror is disabled rather than fatal: the sheet is a
// review surface, not a system of record.
func buildMirror(ctx context.Context, logger *zap.Logger) (pipeline.Mirror, error) {
	spreadsheetID := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")
	credentialsFile := os.Getenv("GOOGLE_SHEETS_CREDENTIALS_FILE")
	if spreadsheetID == "" || credentialsFile == "" {
		logger.Info("sheet mirror disabled")
		return nil, nil
	}

	credentials, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx, credentials)
	if err != nil {
		return nil, err
	}

	tab := envOr("GOOGLE_SHEETS_TAB", "Leads")
	return sheets.NewMirror(svc, spreadsheetID, tab, logger), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
