package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/agenthands/cognivault/internal/config"
	"github.com/agenthands/cognivault/internal/core"
	"github.com/agenthands/cognivault/internal/core/dashboard"
	"github.com/agenthands/cognivault/internal/core/embedding"
	"github.com/agenthands/cognivault/internal/core/extraction"
	"github.com/agenthands/cognivault/internal/core/similarity"
	"github.com/agenthands/cognivault/internal/core/summary"
	"github.com/agenthands/cognivault/internal/core/timeline"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/llm"
	"github.com/agenthands/cognivault/internal/logger"
	"github.com/agenthands/cognivault/internal/logger/console"
	"github.com/agenthands/cognivault/internal/scheduler"
	"github.com/agenthands/cognivault/internal/server"
	"github.com/agenthands/cognivault/internal/session"
	"github.com/agenthands/cognivault/internal/store"
	"github.com/agenthands/cognivault/internal/store/memory"
	"github.com/agenthands/cognivault/internal/store/postgres"
)

const shutdownTimeout = 10 * time.Second

type stores struct {
	documents store.DocumentStore
	intents   store.IntentStore
	vectors   store.VectorStore
	pool      *pgxpool.Pool
}

func main() {
	envErr := godotenv.Load()
	cfg, cfgErr := loadConfig()
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{Debug: cfg.Server.Debug}))
	if envErr != nil {
		logger.Debug("No .env file found")
	}
	if cfgErr != nil {
		logger.Warn("Using default configuration", "error", cfgErr)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		logger.Fatal("Failed to initialize LLM client", "error", err)
	}
	logger.Info("LLM provider ready", "provider", clients.Provider)

	graph := openGraph(ctx, cfg.Graph)
	defer graph.Close(context.Background())

	st := openStores(ctx, cfg.Storage)
	if st.pool != nil {
		defer st.pool.Close()
	}

	gen := embedding.NewGenerator(clients.Embedder, cfg.LLM.Dimensions)
	summarizer := summary.NewSummarizer(clients.LLM, cfg.Prompts)
	policy := similarity.PolicyFromConfig(cfg.Similarity)
	writer := core.NewWriter(graph, st.documents, st.intents, st.vectors, gen)

	var reranker llm.RerankerClient
	if cfg.Graph.RerankSearch && clients.LLM != nil {
		reranker = llm.NewSimpleLLMReranker(clients.LLM)
	}

	vault := core.NewVault(core.Options{
		Graph:        graph,
		Documents:    st.documents,
		Vectors:      st.vectors,
		Extractor:    extraction.NewExtractor(clients.Vision, cfg.Prompts.Vision),
		Summarizer:   summarizer,
		Writer:       writer,
		Linker:       similarity.NewLinker(graph, st.vectors, st.documents, gen, policy),
		Reranker:     reranker,
		Policy:       policy,
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
	})
	analyzer := timeline.NewAnalyzer(st.documents, st.vectors, graph, summarizer, policy)
	aggregator := dashboard.NewAggregator(st.documents, analyzer, vault, summarizer)
	sessions := session.NewMemoryStore(cfg.Session.TTL.Duration)

	sched := scheduler.New()
	jobs := []scheduler.Job{
		core.NewReconciler(writer, cfg.Reconcile.Schedule, cfg.Reconcile.BatchSize, cfg.Reconcile.MaxAttempts),
		scheduler.FuncJob{
			JobName: "session-sweep",
			Cron:    cfg.Session.SweepSchedule,
			Func: func(ctx context.Context) error {
				n, err := sessions.Sweep(ctx)
				if n > 0 {
					logger.Debug("Expired incognito sessions removed", "count", n)
				}
				return err
			},
		},
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			logger.Fatal("Failed to register job", "job", job.Name(), "error", err)
		}
	}
	if err := sched.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	srv := server.NewServer(cfg, vault, analyzer, aggregator, sessions, clients.Provider)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}

// loadConfig reads CONFIG_PATH, falling back to defaults, and applies the
// environment on top. The load error is returned for logging once the
// logger is up.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.toml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	return cfg, err
}

// openGraph connects to Neo4j. Without a graph provider every graph call
// fails fast and the other stores keep serving.
func openGraph(ctx context.Context, cfg config.GraphConfig) driver.GraphDriver {
	if cfg.Provider != "neo4j" {
		logger.Warn("Graph store disabled", "provider", cfg.Provider)
		return driver.Unavailable{}
	}

	d, err := driver.NewNeo4jDriver(ctx, cfg.URI, cfg.User, cfg.Password)
	if err != nil {
		logger.Fatal("Failed to connect to Neo4j", "uri", cfg.URI, "error", err)
	}
	if err := d.BuildIndices(ctx); err != nil {
		logger.Warn("Failed to build graph indices", "error", err)
	}
	return d
}

func openStores(ctx context.Context, cfg config.StorageConfig) stores {
	if cfg.Backend != "postgres" {
		logger.Warn("Using in-memory document and vector stores; data is lost on restart")
		docs := memory.NewStore()
		return stores{documents: docs, intents: docs, vectors: memory.NewVectorStore()}
	}

	if cfg.Migrate {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal("Failed to run migrations", "error", err)
		}
	}
	pool, err := postgres.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", "error", err)
	}
	docs := postgres.NewStore(pool)
	return stores{documents: docs, intents: docs, vectors: postgres.NewVectorStore(pool), pool: pool}
}
