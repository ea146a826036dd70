package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/scribe/assist"
	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/document"
	"github.com/petal-labs/scribe/history"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitService    = 2
	ExitNetwork    = 3
)

func (a *App) newAssistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assist",
		Short: "Stream a model response into a document",
		Long: `Send a document to the model and stream the response back into it.

The file is read once, selections are framed with ->-> and <-<- markers,
and the response is appended near the end of the document as it arrives.
Without an API key (keystore or OPENAI_API_KEY) the command is a no-op.

Examples:
  scribe assist --file draft.md
  scribe assist --file draft.md --selection 120:180 --write
  cat draft.md | scribe assist --file - --json`,
		Args: cobra.NoArgs,
		RunE: a.runAssist,
	}

	cmd.Flags().StringVarP(&a.assistFile, "file", "f", "", "document to assist; - reads stdin (required)")
	cmd.Flags().StringArrayVarP(&a.assistSelections, "selection", "s", nil, "selected byte range start:end; repeatable")
	cmd.Flags().BoolVarP(&a.assistWrite, "write", "w", false, "write the updated document back to the file")

	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (a *App) runAssist(cmd *cobra.Command, args []string) error {
	if a.assistWrite && a.assistFile == "-" {
		return exitWithCode(ExitValidation, fmt.Errorf("cannot combine --write with stdin input"))
	}

	text, err := a.readAssistInput()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	selections, err := parseSelections(a.assistSelections)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	apiKey, ok, err := a.resolveAPIKey()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	if !ok {
		a.log.Debug("no openai api key configured, skipping assist")
		return nil
	}

	doc := document.New(text)
	client := a.newClient(apiKey, a.cfg.BaseURL, a.log)

	opts := []assist.Option{assist.WithLogger(a.log)}
	if a.model != "" {
		opts = append(opts, assist.WithModel(core.ModelID(a.model)))
	}
	assistant := assist.New(client, opts...)

	res, runErr := assistant.Run(cmd.Context(), doc, selections)
	a.recordHistory(cmd.Context(), res, runErr)
	if runErr != nil {
		return a.handleAssistError(runErr)
	}

	return a.writeAssistOutput(doc, res)
}

func (a *App) readAssistInput() (string, error) {
	if a.assistFile == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(a.assistFile)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", a.assistFile, err)
	}
	return string(data), nil
}

// parseSelections turns repeated start:end flag values into document ranges.
func parseSelections(specs []string) ([]document.Range, error) {
	selections := make([]document.Range, 0, len(specs))
	for _, spec := range specs {
		startStr, endStr, found := strings.Cut(spec, ":")
		if !found {
			return nil, fmt.Errorf("invalid selection %q: want start:end", spec)
		}
		start, err := strconv.Atoi(startStr)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q: %w", spec, err)
		}
		end, err := strconv.Atoi(endStr)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q: %w", spec, err)
		}
		selections = append(selections, document.Range{Start: start, End: end})
	}
	return selections, nil
}

// recordHistory appends the session to the history store. Failures are
// logged, never fatal; the assist outcome already stands.
func (a *App) recordHistory(ctx context.Context, res *assist.Result, runErr error) {
	if res == nil || a.cfg.History.Disabled {
		return
	}

	store, err := a.openHistory(a.cfg.HistoryPath())
	if err != nil {
		a.log.Warn("history unavailable", "error", err)
		return
	}
	defer store.Close()

	if err := store.Append(ctx, history.FromResult(res, runErr)); err != nil {
		a.log.Warn("recording session failed", "error", err)
	}
}

func (a *App) writeAssistOutput(doc *document.Document, res *assist.Result) error {
	snap := doc.Snapshot()

	if a.assistWrite {
		if err := os.WriteFile(a.assistFile, []byte(snap.Text), 0644); err != nil {
			return exitWithCode(ExitValidation, fmt.Errorf("writing %s: %w", a.assistFile, err))
		}
	}

	if a.jsonOutput {
		output := map[string]interface{}{
			"session_id":      res.SessionID,
			"model":           res.Model,
			"text":            snap.Text,
			"version":         snap.Version,
			"inserted_chars":  res.InsertedChars,
			"events":          res.Events,
			"decode_failures": res.DecodeFailures,
			"usage": map[string]int{
				"prompt_tokens":     res.Usage.PromptTokens,
				"completion_tokens": res.Usage.CompletionTokens,
				"total_tokens":      res.Usage.TotalTokens,
			},
		}
		if res.FinishReason != "" {
			output["finish_reason"] = res.FinishReason
		}

		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	if a.assistWrite {
		// The document went back to the file; keep stdout quiet.
		return nil
	}

	_, err := io.WriteString(a.stdout, snap.Text)
	return err
}

func (a *App) handleAssistError(err error) error {
	var svcErr *core.ServiceError
	if errors.As(err, &svcErr) {
		if a.jsonOutput {
			a.outputErrorJSON("service_error", svcErr.Error())
		} else {
			fmt.Fprintf(a.stderr, "Error: %s\n", svcErr.Error())
		}
		return exitWithCode(ExitService, err)
	}

	// Network errors
	if errors.Is(err, core.ErrNetwork) {
		if a.jsonOutput {
			a.outputErrorJSON("network_error", err.Error())
		} else {
			fmt.Fprintf(a.stderr, "Error: network error: %v\n", err)
		}
		return exitWithCode(ExitNetwork, err)
	}

	// Validation errors
	if errors.Is(err, core.ErrModelRequired) || errors.Is(err, core.ErrNoMessages) ||
		errors.Is(err, document.ErrOutOfRange) || errors.Is(err, assist.ErrInvalidSelections) {
		if a.jsonOutput {
			a.outputErrorJSON("validation_error", err.Error())
		} else {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
		}
		return exitWithCode(ExitValidation, err)
	}

	// Generic error
	if a.jsonOutput {
		a.outputErrorJSON("error", err.Error())
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return exitWithCode(ExitService, err)
}

func (a *App) outputErrorJSON(errType, message string) {
	output := map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}
