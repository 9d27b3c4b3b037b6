package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/medrag/knowledge-engine/internal/config"
	"github.com/medrag/knowledge-engine/internal/core/domain"
	"github.com/medrag/knowledge-engine/internal/core/ports"
	"github.com/medrag/knowledge-engine/internal/core/usecase"
	"github.com/medrag/knowledge-engine/internal/infrastructure/chunking"
	"github.com/medrag/knowledge-engine/internal/infrastructure/embedding/openai"
	"github.com/medrag/knowledge-engine/internal/infrastructure/entity"
	"github.com/medrag/knowledge-engine/internal/infrastructure/extractor"
	neo4jstore "github.com/medrag/knowledge-engine/internal/infrastructure/graph/neo4j"
	natsqueue "github.com/medrag/knowledge-engine/internal/infrastructure/queue/nats"
	"github.com/medrag/knowledge-engine/internal/infrastructure/reranker/crossencoder"
	"github.com/medrag/knowledge-engine/internal/infrastructure/repository/postgres"
	"github.com/medrag/knowledge-engine/internal/observability/metrics"
)

// Options selects which optional backends a binary needs. The search CLI
// does not pay for a NATS connection; an ingest run with graph building
// disabled does not dial Neo4j.
type Options struct {
	WithQueue bool
	WithGraph bool
	Service   string
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    ports.MessageQueue
	SearchUC ports.DocumentSearcher
	IngestUC ports.DocumentIngestor

	IngestMetrics *metrics.IngestMetrics

	closeFn func(context.Context)
	cleanFn func(context.Context) error
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, options Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewStore(db, cfg.EmbeddingDimensions)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var graphStore *neo4jstore.Store
	if options.WithGraph && !cfg.SkipGraphBuilding {
		graphStore, err = neo4jstore.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect neo4j: %w", err)
		}
	}

	var queue *natsqueue.Queue
	if options.WithQueue {
		queue, err = natsqueue.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			closeStores(ctx, graphStore, db)
			return nil, fmt.Errorf("init message queue: %w", err)
		}
	}

	embedder := openai.New(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
	reranker := crossencoder.New(cfg.RerankerURL, cfg.RerankerModel, logger)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	reader := extractor.NewReader()

	dictionary, err := entity.LoadDictionary(cfg.EntitiesFile, logger)
	if err != nil {
		closeStores(ctx, graphStore, db)
		if queue != nil {
			queue.Close()
		}
		return nil, fmt.Errorf("load entity dictionary: %w", err)
	}
	tagger := entity.NewExtractor(dictionary)

	searchMetrics := metrics.NewSearchMetrics(options.Service)
	ingestMetrics := metrics.NewIngestMetrics(options.Service)

	searchUC := usecase.NewSearchUseCase(embedder, store, reranker, cfg.SearchTextWeight, logger, searchMetrics)

	var graphUC *usecase.GraphBuildUseCase
	if graphStore != nil {
		limiter := rate.NewLimiter(rate.Limit(cfg.GraphEpisodesPerSecond), 1)
		graphUC = usecase.NewGraphBuildUseCase(graphStore, limiter, cfg.EpisodeMaxChars, logger)
	}

	ingestUC := usecase.NewIngestUseCase(
		reader,
		chunker,
		tagger,
		embedder,
		store,
		graphUC,
		usecase.IngestOptions{
			ExtractEntities:   cfg.ExtractEntities,
			Categories:        domain.AllCategories(),
			SkipGraphBuilding: cfg.SkipGraphBuilding,
		},
		cfg.DocumentsDir,
		logger,
		ingestMetrics,
	)

	app := &App{
		Config:        cfg,
		Logger:        logger,
		SearchUC:      searchUC,
		IngestUC:      ingestUC,
		IngestMetrics: ingestMetrics,
		closeFn: func(ctx context.Context) {
			if queue != nil {
				queue.Close()
			}
			closeStores(ctx, graphStore, db)
		},
		cleanFn: func(ctx context.Context) error {
			if err := store.Purge(ctx); err != nil {
				return err
			}
			if graphStore != nil {
				return graphStore.Purge(ctx)
			}
			return nil
		},
	}
	if queue != nil {
		app.Queue = queue
	}
	return app, nil
}

func (a *App) Close(ctx context.Context) {
	if a.closeFn != nil {
		a.closeFn(ctx)
	}
}

// Clean wipes all persisted documents, chunks and graph episodes so a
// corpus can be re-ingested from scratch without accumulating duplicates.
func (a *App) Clean(ctx context.Context) error {
	return a.cleanFn(ctx)
}

func closeStores(ctx context.Context, graphStore *neo4jstore.Store, db interface{ Close() error }) {
	if graphStore != nil {
		_ = graphStore.Close(ctx)
	}
	_ = db.Close()
}
