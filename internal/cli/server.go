package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quadtrivia/internal/app"
	"quadtrivia/internal/commit"
	"quadtrivia/internal/config"
	"quadtrivia/internal/infra/memory"
	"quadtrivia/internal/infra/opentdb"
	pgbank "quadtrivia/internal/infra/postgres"
	rediscache "quadtrivia/internal/infra/redis"
	transport "quadtrivia/internal/transport/http"
)

const defaultUpstreamURL = "https://opentdb.com"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Without a signer no commitment can ever be verified; refuse to start.
	signer, err := newSigner(cfg)
	if err != nil {
		return fmt.Errorf("initialize signer: %w", err)
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	baseURL := cfg.Upstream.BaseURL
	if baseURL == "" {
		baseURL = defaultUpstreamURL
	}
	upstreamTimeout := config.TTLDuration(cfg.Upstream.Timeout, 10*time.Second)
	upstream := opentdb.NewClient(baseURL, upstreamTimeout)

	var issuer memory.CredentialIssuer = upstream
	var fetcher app.QuestionFetcher = upstream
	var categoryLoader memory.CategoryLoader = upstream
	if cfg.Questions.Source == "postgres" {
		if pool == nil {
			return fmt.Errorf("questions source is postgres but no postgres url configured")
		}
		bank := pgbank.NewQuestionBank(pool)
		fetcher = bank
		categoryLoader = bank
		issuer = memory.NewStaticIssuer()
	}

	credentialTTL := config.TTLDuration(cfg.Credential.TTL, 3*time.Hour)
	var credentials app.CredentialStore
	if redisClient != nil {
		credentials = rediscache.NewCredentialStore(redisClient, issuer, credentialTTL)
	} else {
		credentials = memory.NewCredentialStore(issuer, credentialTTL)
	}

	categoryTTL := config.TTLDuration(cfg.Categories.TTL, time.Hour)
	var categories app.CategorySource
	if redisClient != nil {
		categories = rediscache.NewCategoryCache(redisClient, categoryLoader, categoryTTL)
	} else {
		categories = memory.NewCategoryCache(categoryLoader, categoryTTL)
	}

	service := app.NewTriviaService(credentials, fetcher, categories, signer)
	handler := transport.NewHandler(service)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newSigner(cfg config.Config) (*commit.Signer, error) {
	if cfg.Signing.Key != "" {
		return commit.NewSignerFromHex(cfg.Signing.Key)
	}
	return commit.NewSigner()
}
