package neo4j

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/medrag/knowledge-engine/internal/core/domain"
	"github.com/medrag/knowledge-engine/internal/infrastructure/resilience"
)

// Store writes episodic nodes into a Neo4j knowledge graph. Each episode
// becomes one node carrying the chunk text and its provenance fields.
type Store struct {
	driver neo4j.DriverWithContext
	logger *slog.Logger
}

func Connect(ctx context.Context, uri, user, password string, logger *slog.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "create neo4j driver", err)
	}

	exec := resilience.NewExecutor(resilience.EstablishConfig())
	err = exec.Execute(ctx, "neo4j connect", func(ctx context.Context) error {
		return driver.VerifyConnectivity(ctx)
	}, func(err error) resilience.ErrorClassification {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err != nil {
		_ = driver.Close(ctx)
		return nil, domain.WrapError(domain.ErrTemporary, "verify neo4j connectivity", err)
	}

	logger.Info("connected to neo4j", "uri", uri)
	return &Store{driver: driver, logger: logger}, nil
}

const createEpisodeCypher = `
CREATE (e:Episode {
    uuid: $uuid,
    content: $content,
    source_description: $source_description,
    created_at: $created_at,
    document_title: $document_title,
    document_source: $document_source,
    chunk_index: $chunk_index
})`

func (s *Store) AddEpisode(ctx context.Context, episode domain.Episode) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	params := map[string]any{
		"uuid":               episode.ID,
		"content":            episode.Content,
		"source_description": episode.SourceDescription,
		"created_at":         episode.Timestamp,
		"document_title":     episode.Metadata["document_title"],
		"document_source":    episode.Metadata["document_source"],
		"chunk_index":        episode.Metadata["chunk_index"],
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, createEpisodeCypher, params)
		if err != nil {
			return nil, err
		}
		return nil, result.Err()
	})
	if err != nil {
		return fmt.Errorf("create episode node: %w", err)
	}
	return nil
}

// Purge deletes every episode node. Used by the clean re-ingest path so a
// rebuilt corpus does not accumulate stale episodes.
func (s *Store) Purge(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (e:Episode) DETACH DELETE e`, nil)
		if err != nil {
			return nil, err
		}
		return nil, result.Err()
	})
	if err != nil {
		return fmt.Errorf("purge episodes: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
