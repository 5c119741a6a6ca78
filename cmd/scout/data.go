package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"talentscout/internal/specialist"
	"talentscout/internal/store"
)

// ingestCmd loads a candidate corpus into the store
var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest candidates from a JSON file",
	Long: `Reads a JSON array of candidate records, embeds each document and
stores them for semantic search. Records with an existing ID are replaced.

Record format:
  [{"id": "c1", "name": "Alice Wong",
    "document": "Python developer, 6 years ...",
    "metadata": {"experience_level": "Senior Level", "skills": "Python, Django"}}]`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

// valuesCmd lists distinct metadata values, optionally matched to a criterion
var valuesCmd = &cobra.Command{
	Use:   "values [field] [criterion]",
	Short: "List distinct metadata values for a field",
	Long: `Lists the distinct values stored under a metadata field. With a
criterion argument, the filter matcher selects the values that satisfy it.

Examples:
  scout values experience_level
  scout values experience_level "senior people"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runValues,
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}

	var records []struct {
		ID       string            `json:"id"`
		Name     string            `json:"name"`
		Document string            `json:"document"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse corpus: %w", err)
	}

	candidates := make([]store.Candidate, 0, len(records))
	for _, rec := range records {
		candidates = append(candidates, store.Candidate{
			ID:       rec.ID,
			Name:     rec.Name,
			Document: rec.Document,
			Metadata: rec.Metadata,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.store.AddBatch(ctx, candidates); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	count, err := a.store.Count(ctx)
	if err != nil {
		return err
	}
	logger.Info("ingest complete",
		zap.Int("added", len(candidates)), zap.Int("total", count))
	fmt.Printf("Ingested %d candidates (%d total in store)\n", len(candidates), count)
	return nil
}

func runValues(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	field := args[0]
	values, err := a.store.FieldValues(ctx, field)
	if err != nil {
		return fmt.Errorf("failed to list values: %w", err)
	}
	if len(values) == 0 {
		fmt.Printf("No values stored under %q\n", field)
		return nil
	}

	if len(args) == 1 {
		fmt.Printf("%s (%d values):\n", field, len(values))
		for _, v := range values {
			fmt.Printf("  - %s\n", v)
		}
		return nil
	}

	criterion := args[1]
	matcher := specialist.NewFilterMatcher(a.runner, a.cfg.GenFor(a.cfg.Specialists.FilterMatching))
	res := matcher.Match(ctx, field, criterion, values)

	fmt.Printf("%s matching %q (confidence %.2f):\n", field, criterion, res.Confidence)
	if len(res.MatchedValues) == 0 {
		fmt.Println("  (no matches)")
	}
	for _, v := range res.MatchedValues {
		fmt.Printf("  - %s\n", v)
	}
	if res.Reasoning != "" {
		fmt.Printf("Reasoning: %s\n", strings.TrimSpace(res.Reasoning))
	}
	return nil
}
