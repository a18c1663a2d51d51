package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/career-omni/internal/analysis"
	"github.com/jonathan/career-omni/internal/archive"
	"github.com/jonathan/career-omni/internal/config"
	"github.com/jonathan/career-omni/internal/db"
	"github.com/jonathan/career-omni/internal/extraction"
	"github.com/jonathan/career-omni/internal/generation"
	"github.com/jonathan/career-omni/internal/ingestion"
	"github.com/jonathan/career-omni/internal/server"
	"github.com/jonathan/career-omni/internal/server/ratelimit"
	"github.com/jonathan/career-omni/internal/session"
	"github.com/spf13/cobra"
)

// sweepInterval is how often expired sessions are removed.
const sweepInterval = 10 * time.Minute

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes résumé upload, analysis, export and generation endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	deps := server.Deps{
		Store:     store,
		Extractor: extraction.NewExtractor(),
		Analyzer:  analysis.NewAnalyzer(client, analysis.WithTimeout(cfg.Timeout())),
		Generator: generation.NewGenerator(client,
			generation.WithTimeout(cfg.Timeout()),
			generation.WithURLOptions(ingestion.URLOptions{UseBrowser: cfg.UseBrowser, Verbose: cfg.Verbose}),
		),
		JWT:         server.NewJWTService(jwtConfig),
		RateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
	}

	if archiveCfg := cfg.Archive(); archiveCfg.Enabled() {
		archiver, err := archive.New(ctx, archiveCfg)
		if err != nil {
			return fmt.Errorf("failed to configure archive: %w", err)
		}
		deps.Archiver = archiver
		log.Printf("[archive] exporting analyses to bucket %s", archiveCfg.Bucket)
	}

	srv, err := server.New(server.Config{
		Port:           cfg.Port,
		MaxUploadBytes: cfg.MaxUploadBytes,
		SweepInterval:  sweepInterval,
	}, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}

// openSessionStore uses PostgreSQL when a database URL is configured and
// memory otherwise. The returned func releases the store.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Printf("[sessions] DATABASE_URL not set; sessions are kept in memory")
		return session.NewMemoryStore(cfg.SessionTTL()), func() {}, nil
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to prepare database schema: %w", err)
	}
	return db.NewSessionStore(database, cfg.SessionTTL()), database.Close, nil
}
