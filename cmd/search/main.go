package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/medrag/knowledge-engine/internal/bootstrap"
	"github.com/medrag/knowledge-engine/internal/config"
	"github.com/medrag/knowledge-engine/internal/observability/logging"
)

func main() {
	var (
		limit      = flag.Int("limit", 0, "maximum results (defaults to SEARCH_TOP_K)")
		candidates = flag.Int("candidates", 0, "retrieval pool size before reranking (defaults to SEARCH_CANDIDATES)")
		asJSON     = flag.Bool("json", false, "print results as JSON")
	)
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		log.Fatalf("usage: search [flags] <query>")
	}

	cfg := config.Load()
	logger := logging.NewJSONLogger("search", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{Service: "search"})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close(context.Background())

	if *limit <= 0 {
		*limit = cfg.SearchTopK
	}
	if *candidates <= 0 {
		*candidates = cfg.SearchCandidates
	}

	results, err := app.SearchUC.HybridSearch(ctx, query, *limit, *candidates)
	if err != nil {
		log.Fatalf("search error: %v", err)
	}

	if *asJSON {
		_ = json.NewEncoder(os.Stdout).Encode(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("no results")
		return
	}
	for i, r := range results {
		fmt.Printf("%d. [%.3f] %s (%s)\n", i+1, r.Score, r.DocumentTitle, r.DocumentSource)
		fmt.Printf("   %s\n", excerpt(r.Content, 200))
	}
}

func excerpt(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
