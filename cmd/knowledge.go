package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lakitu0/lakitu/internal/app"
	"github.com/lakitu0/lakitu/internal/ingest"
	"github.com/lakitu0/lakitu/internal/knowledge"
)

var (
	searchTopK    int
	searchSources []string
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the game knowledge base",
}

var knowledgeIngestCmd = &cobra.Command{
	Use:   "ingest <game>",
	Short: "Scrape and embed a game's source catalog",
	Long: `Run the ingestion pipeline for one game: load its catalog CSV, fetch
and clean each source, chunk the text, embed the chunks, and store them.
The catalog lives at <games_dir>/<game>.csv.`,
	Args: cobra.ExactArgs(1),
	RunE: runKnowledgeIngest,
}

var knowledgeSearchCmd = &cobra.Command{
	Use:   "search <game> <query...>",
	Short: "Search a game's knowledge base",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runKnowledgeSearch,
}

var knowledgeStatsCmd = &cobra.Command{
	Use:   "stats [game]",
	Short: "Show knowledge base statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKnowledgeStats,
}

var knowledgeDeleteCmd = &cobra.Command{
	Use:   "delete <game>",
	Short: "Delete all of a game's documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runKnowledgeDelete,
}

var knowledgeValidateCmd = &cobra.Command{
	Use:   "validate <game>",
	Short: "Validate a game's catalog CSV without ingesting",
	Args:  cobra.ExactArgs(1),
	RunE:  runKnowledgeValidate,
}

func init() {
	knowledgeSearchCmd.Flags().IntVar(&searchTopK, "top-k", 5, "maximum results")
	knowledgeSearchCmd.Flags().StringSliceVar(&searchSources, "sources", nil, "filter by source types (wiki, youtube, forum)")

	knowledgeCmd.AddCommand(knowledgeIngestCmd)
	knowledgeCmd.AddCommand(knowledgeSearchCmd)
	knowledgeCmd.AddCommand(knowledgeStatsCmd)
	knowledgeCmd.AddCommand(knowledgeDeleteCmd)
	knowledgeCmd.AddCommand(knowledgeValidateCmd)
	rootCmd.AddCommand(knowledgeCmd)
}

func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	return fn(ctx, a)
}

func runKnowledgeIngest(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		pipeline, err := a.NewPipeline()
		if err != nil {
			return fmt.Errorf("creating pipeline: %w", err)
		}

		result, err := pipeline.ProcessGame(ctx, args[0])
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", args[0], err)
		}

		fmt.Printf("Game:      %s\n", result.Game)
		fmt.Printf("Sources:   %d\n", result.Sources)
		fmt.Printf("Processed: %d\n", result.Processed)
		fmt.Printf("Skipped:   %d\n", result.Skipped)
		fmt.Printf("Chunks:    %d\n", result.Chunks)
		for _, e := range result.Errors {
			fmt.Printf("  warning: %s\n", e)
		}
		return nil
	})
}

func runKnowledgeSearch(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		game := args[0]
		query := strings.Join(args[1:], " ")

		opts := []knowledge.SearchOption{knowledge.WithTopK(searchTopK)}
		if len(searchSources) > 0 {
			opts = append(opts, knowledge.WithSourceTypes(searchSources...))
		}

		results, err := a.Knowledge.Search(ctx, game, query, opts...)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}

		for i, res := range results {
			fmt.Printf("%d. %s (%s, %.2f)\n", i+1, res.Document.Title, res.Document.SourceType, res.Similarity)
			fmt.Printf("   %s\n", res.Document.URL)
			fmt.Printf("   %s\n\n", res.Document.Content)
		}
		return nil
	})
}

func runKnowledgeStats(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		if len(args) == 0 {
			games, err := a.Knowledge.Games(ctx)
			if err != nil {
				return fmt.Errorf("loading stats: %w", err)
			}
			if len(games) == 0 {
				fmt.Println("Knowledge base is empty.")
				return nil
			}
			for game, count := range games {
				fmt.Printf("%-20s %d documents\n", game, count)
			}
			return nil
		}

		stats, err := a.Knowledge.GameStats(ctx, args[0])
		if err != nil {
			return fmt.Errorf("loading stats: %w", err)
		}
		fmt.Printf("Game:  %s\n", stats.Game)
		fmt.Printf("Total: %d documents\n", stats.Total)
		for sourceType, count := range stats.BySourceType {
			fmt.Printf("  %-10s %d\n", sourceType, count)
		}
		return nil
	})
}

func runKnowledgeDelete(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		deleted, err := a.Knowledge.DeleteGame(ctx, args[0])
		if err != nil {
			return fmt.Errorf("deleting: %w", err)
		}
		fmt.Printf("Deleted %d documents for %s\n", deleted, args[0])
		return nil
	})
}

func runKnowledgeValidate(_ *cobra.Command, args []string) error {
	// Validation only needs the catalog file, not the full app.
	cfg, err := loadConfigOnly()
	if err != nil {
		return err
	}

	catalog, err := ingest.LoadCatalog(cfg.GamesDir, args[0])
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	fmt.Printf("Catalog %s: %d sources\n", ingest.CatalogPath(cfg.GamesDir, args[0]), len(catalog.Sources))
	for _, src := range catalog.Sources {
		fmt.Printf("  row %d  %-8s %s\n", src.Row, src.SourceType, src.URL)
	}
	return nil
}
