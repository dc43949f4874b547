package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"ledgerlens-backend/internal/analysis"
	"ledgerlens-backend/internal/documents"
	"ledgerlens-backend/internal/embed"
	"ledgerlens-backend/internal/geopolitical"
	"ledgerlens-backend/internal/ingest"
	"ledgerlens-backend/internal/llm"
	anthropicllm "ledgerlens-backend/internal/llm/anthropic"
	openaillm "ledgerlens-backend/internal/llm/openai"
	"ledgerlens-backend/internal/shared/config"
	"ledgerlens-backend/internal/shared/server"
	"ledgerlens-backend/internal/shared/storage/db"
	"ledgerlens-backend/internal/shared/storage/object"
	localstore "ledgerlens-backend/internal/shared/storage/object/local"
	s3store "ledgerlens-backend/internal/shared/storage/object/s3"
	"ledgerlens-backend/internal/shared/storage/vector"
	vectormem "ledgerlens-backend/internal/shared/storage/vector/memory"
	"ledgerlens-backend/internal/shared/storage/vector/pinecone"
)

// App holds the process-wide dependency graph. Everything is constructed
// once here and passed down explicitly; no package-level singletons.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	Store    object.ObjectStore
	Vector   vector.Store
	Embedder embed.Embedder
	LLM      llm.Client
	Enricher *geopolitical.Enricher

	Ingestor         *ingest.Ingestor
	DocumentsRepo    documents.Repo
	DocumentsService *documents.Service
	AnalysisService  *analysis.Service

	DocumentsHandler *documents.Handler
	AnalysisHandler  *analysis.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	vec, err := buildVectorStore(cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	var enricher *geopolitical.Enricher
	if cfg.EnrichmentEnabled {
		enricher = geopolitical.NewEnricher(geopolitical.NewWorldBankFeed())
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Vector:   vec,
		Embedder: embedder,
		LLM:      llmClient,
		Enricher: enricher,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		AnalysisHandler: app.AnalysisHandler,
	})
	return app, nil
}

func buildServices(app *App) {
	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
	}

	app.Ingestor = ingest.New(app.Store, app.Vector, app.Embedder)
	app.DocumentsService = documents.NewService(app.DocumentsRepo, app.Ingestor, app.Store)
	app.AnalysisService = &analysis.Service{
		Vector:              app.Vector,
		Embedder:            app.Embedder,
		Enricher:            app.Enricher,
		LLM:                 app.LLM,
		Store:               app.Store,
		Docs:                app.DocumentsService,
		TopK:                app.Config.RetrievalTopK,
		MaxResearchAttempts: app.Config.MaxResearchAttempts,
	}

	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.AnalysisHandler = analysis.NewHandler(app.AnalysisService)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildVectorStore(cfg config.Config) (vector.Store, error) {
	if strings.TrimSpace(cfg.PineconeAPIKey) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: PINECONE_API_KEY empty; using in-memory vector store")
			return vectormem.New(), nil
		}
		return nil, fmt.Errorf("PINECONE_API_KEY is required")
	}
	return pinecone.New(cfg.PineconeAPIKey, cfg.PineconeHost)
}

func buildEmbedder(cfg config.Config) (embed.Embedder, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: OPENAI_API_KEY empty; embeddings unavailable")
			return nil, nil
		}
		return nil, fmt.Errorf("OPENAI_API_KEY is required for embeddings")
	}
	return embed.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbedModel)
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "anthropic":
		if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: ANTHROPIC_API_KEY empty; analysis unavailable")
				return nil, nil
			}
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
		return anthropicllm.NewClient(cfg.AnthropicAPIKey, cfg.LLMModel)
	default:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: OPENAI_API_KEY empty; analysis unavailable")
				return nil, nil
			}
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		return openaillm.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
