package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/medrag/knowledge-engine/internal/bootstrap"
	"github.com/medrag/knowledge-engine/internal/config"
	"github.com/medrag/knowledge-engine/internal/observability/logging"
)

func main() {
	var (
		folder     = flag.String("folder", "", "folder to ingest (defaults to DOCUMENTS_DIR)")
		file       = flag.String("file", "", "single file to ingest instead of a folder")
		enqueue    = flag.Bool("enqueue", false, "publish paths to the ingest queue instead of processing locally")
		chunkSize  = flag.Int("chunk-size", 0, "chunk size in characters (defaults to CHUNK_SIZE)")
		overlap    = flag.Int("chunk-overlap", -1, "chunk overlap in characters (defaults to CHUNK_OVERLAP)")
		clean      = flag.Bool("clean", false, "wipe stored documents, chunks and graph episodes before ingesting")
		noEntities = flag.Bool("no-entities", false, "skip entity extraction")
		fast       = flag.Bool("fast", false, "skip knowledge graph building")
		verbose    = flag.Bool("verbose", false, "debug logging")
		asJSON     = flag.Bool("json", false, "print results as JSON")
	)
	flag.Parse()

	cfg := config.Load()
	if *chunkSize > 0 {
		cfg.ChunkSize = *chunkSize
	}
	if *overlap >= 0 {
		cfg.ChunkOverlap = *overlap
	}
	if *noEntities {
		cfg.ExtractEntities = false
	}
	if *fast {
		cfg.SkipGraphBuilding = true
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	logger := logging.NewJSONLogger("ingest", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{WithQueue: *enqueue, WithGraph: !*enqueue, Service: "ingest"})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close(context.Background())

	root := cfg.DocumentsDir
	if *folder != "" {
		root = *folder
	}

	if *clean {
		if *enqueue {
			log.Fatalf("-clean cannot be combined with -enqueue")
		}
		if err := app.Clean(ctx); err != nil {
			log.Fatalf("clean error: %v", err)
		}
		logger.Info("stores cleaned before ingestion")
	}

	if *enqueue {
		if *file == "" {
			log.Fatalf("-enqueue requires -file")
		}
		if err := app.Queue.PublishIngestRequest(ctx, *file); err != nil {
			log.Fatalf("enqueue error: %v", err)
		}
		fmt.Printf("enqueued %s\n", *file)
		return
	}

	if *file != "" {
		result := app.IngestUC.IngestDocument(ctx, *file)
		if *asJSON {
			_ = json.NewEncoder(os.Stdout).Encode(result)
			return
		}
		fmt.Printf("%s (id=%s): %d chunks, %d entities, %d episodes\n",
			result.Title, result.DocumentID, result.ChunksCreated, result.EntitiesExtracted, result.RelationshipsCreated)
		for _, e := range result.Errors {
			fmt.Printf("  error: %s\n", e)
		}
		return
	}

	results, err := app.IngestUC.IngestFolder(ctx, root)
	if err != nil && len(results) == 0 {
		log.Fatalf("ingestion error: %v", err)
	}

	if *asJSON {
		_ = json.NewEncoder(os.Stdout).Encode(results)
	} else {
		totalChunks, totalEntities, totalEpisodes, totalErrors := 0, 0, 0, 0
		for _, r := range results {
			totalChunks += r.ChunksCreated
			totalEntities += r.EntitiesExtracted
			totalEpisodes += r.RelationshipsCreated
			totalErrors += len(r.Errors)
			fmt.Printf("%-40s chunks=%-4d entities=%-4d episodes=%-4d errors=%d\n",
				r.Title, r.ChunksCreated, r.EntitiesExtracted, r.RelationshipsCreated, len(r.Errors))
		}
		fmt.Printf("\n%d documents, %d chunks, %d entities, %d episodes, %d errors\n",
			len(results), totalChunks, totalEntities, totalEpisodes, totalErrors)
	}
	if err != nil {
		log.Fatalf("ingestion stopped early: %v", err)
	}
}
