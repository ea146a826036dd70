package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *App) newHistoryCommand() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded assist sessions",
		Long: `Inspect the local session log.

Every assist run is recorded unless history is disabled in config.

Examples:
  scribe history list
  scribe history list --limit 5 --json
  scribe history prune --older-than 30`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		Args:  cobra.NoArgs,
		RunE:  a.runHistoryList,
	}
	list.Flags().IntVar(&a.historyLimit, "limit", 20, "maximum sessions to show")

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete sessions older than a cutoff",
		Args:  cobra.NoArgs,
		RunE:  a.runHistoryPrune,
	}
	prune.Flags().IntVar(&a.pruneDays, "older-than", 30, "delete sessions older than this many days")

	historyCmd.AddCommand(list)
	historyCmd.AddCommand(prune)

	return historyCmd
}

func (a *App) runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := a.openHistory(a.cfg.HistoryPath())
	if err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("opening history: %w", err))
	}
	defer store.Close()

	records, err := store.List(cmd.Context(), a.historyLimit)
	if err != nil {
		return exitWithCode(ExitService, err)
	}

	if a.jsonOutput {
		out := make([]map[string]interface{}, 0, len(records))
		for _, rec := range records {
			entry := map[string]interface{}{
				"id":              rec.ID,
				"started_at":      rec.StartedAt.Format(time.RFC3339),
				"duration_ms":     rec.Duration.Milliseconds(),
				"model":           rec.Model,
				"status":          rec.Status,
				"prompt_tokens":   rec.PromptTokens,
				"inserted_chars":  rec.InsertedChars,
				"events":          rec.Events,
				"decode_failures": rec.DecodeFailures,
			}
			if rec.FinishReason != "" {
				entry["finish_reason"] = rec.FinishReason
			}
			if rec.Error != "" {
				entry["error"] = rec.Error
			}
			out = append(out, entry)
		}

		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(records) == 0 {
		fmt.Fprintln(a.stdout, "No sessions recorded.")
		return nil
	}

	for _, rec := range records {
		fmt.Fprintf(a.stdout, "%s  %s  %-5s  %s  %d chars, %d events\n",
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
			shortID(rec.ID),
			rec.Status,
			rec.Model,
			rec.InsertedChars,
			rec.Events,
		)
		if rec.Error != "" {
			fmt.Fprintf(a.stdout, "    error: %s\n", rec.Error)
		}
	}

	return nil
}

func (a *App) runHistoryPrune(cmd *cobra.Command, args []string) error {
	if a.pruneDays <= 0 {
		return exitWithCode(ExitValidation, fmt.Errorf("--older-than must be positive, got %d", a.pruneDays))
	}

	store, err := a.openHistory(a.cfg.HistoryPath())
	if err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("opening history: %w", err))
	}
	defer store.Close()

	cutoff := time.Now().AddDate(0, 0, -a.pruneDays)
	deleted, err := store.Prune(cmd.Context(), cutoff)
	if err != nil {
		return exitWithCode(ExitService, err)
	}

	if a.jsonOutput {
		fmt.Fprintf(a.stdout, `{"deleted":%d}`+"\n", deleted)
		return nil
	}

	fmt.Fprintf(a.stdout, "Deleted %d session(s).\n", deleted)
	return nil
}

// shortID trims a session id for column display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
