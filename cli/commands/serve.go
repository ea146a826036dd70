package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/scribe/assist"
	"github.com/petal-labs/scribe/cli/config"
	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/document"
	"github.com/petal-labs/scribe/history"
)

// maxRequestBytes bounds one request line on stdin.
const maxRequestBytes = 1024 * 1024

func (a *App) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the stdio editor backend",
		Long: `Run scribe as a long-lived editor backend speaking JSON lines.

Each line on stdin is one request; each response is one line on stdout.
Actions: open, text, close, assist, ping, version.

The config file is watched while serving: default model and log level
changes apply without a restart. Without an API key (keystore or
OPENAI_API_KEY) the command is a no-op.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
}

func (a *App) runServe(cmd *cobra.Command, args []string) error {
	apiKey, ok, err := a.resolveAPIKey()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	if !ok {
		a.log.Debug("no openai api key configured, skipping serve")
		return nil
	}

	// Hot-reloadable level: the config watcher adjusts it without tearing
	// down the handler.
	level := new(slog.LevelVar)
	level.Set(a.cfg.Level())
	if a.verbose {
		level.Set(slog.LevelDebug)
	}
	log := a.cfg.NewLoggerWithLevel(a.stderr, level)

	srv := &server{
		client: a.newClient(apiKey, a.cfg.BaseURL, log),
		log:    log.With("component", "serve"),
		docs:   make(map[string]*document.Document),
		model:  a.model,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var scheduler *history.Scheduler
	if !a.cfg.History.Disabled {
		store, err := a.openHistory(a.cfg.HistoryPath())
		if err != nil {
			log.Warn("history unavailable", "error", err)
		} else {
			defer store.Close()
			srv.store = store
			scheduler = history.NewScheduler(store, history.RetentionPolicy{
				RetentionDays: a.cfg.History.RetentionDays,
				Schedule:      a.cfg.History.PruneSchedule,
			}, log)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The scan loop ending (editor closed stdin) shuts the group down.
		defer cancel()
		return srv.scan(ctx, a.stdin, a.stdout)
	})

	if scheduler != nil {
		g.Go(func() error {
			if err := scheduler.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			scheduler.Stop()
			return nil
		})
	}

	g.Go(func() error {
		// A watcher failure disables hot reload but does not stop serving.
		err := config.Watch(ctx, a.cfgPath, log, func(cfg *config.Config) {
			level.Set(cfg.Level())
			srv.setModel(cfg.DefaultModel)
		})
		if err != nil {
			log.Warn("config watch unavailable", "error", err)
		}
		return nil
	})

	log.Info("serve started", "config", a.cfgPath, "model", srv.currentModel())

	if err := g.Wait(); err != nil {
		return a.handleAssistError(err)
	}
	return nil
}

// serveRequest is one JSON line on stdin.
type serveRequest struct {
	Action     string   `json:"action"`
	ID         string   `json:"id,omitempty"`
	Text       string   `json:"text,omitempty"`
	Selections [][2]int `json:"selections,omitempty"`
	Model      string   `json:"model,omitempty"`
}

// serveResponse is one JSON line on stdout. Text is a pointer so an empty
// document still serializes.
type serveResponse struct {
	OK             bool    `json:"ok"`
	Error          string  `json:"error,omitempty"`
	ID             string  `json:"id,omitempty"`
	Text           *string `json:"text,omitempty"`
	Version        *int64  `json:"version,omitempty"`
	SessionID      string  `json:"session_id,omitempty"`
	InsertedChars  int     `json:"inserted_chars,omitempty"`
	Events         int     `json:"events,omitempty"`
	DecodeFailures int     `json:"decode_failures,omitempty"`
	ServerVersion  string  `json:"server_version,omitempty"`
}

// server is the serve-mode state: open documents, the active model, and the
// session log.
type server struct {
	client assist.StreamClient
	store  *history.Store
	log    *slog.Logger

	mu    sync.Mutex
	docs  map[string]*document.Document
	model string
}

func (s *server) setModel(model string) {
	if model == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

func (s *server) currentModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// scan reads one JSON request per stdin line and writes one JSON response
// per line, until input ends or ctx is canceled. The reader runs on its own
// goroutine so cancellation is not stuck behind a blocking read; that
// goroutine exits with the process if stdin never unblocks.
func (s *server) scan(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestBytes)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
		}
	}()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if errors.Is(err, bufio.ErrTooLong) {
						_ = enc.Encode(serveResponse{Error: "request too large (max 1MB)"})
					}
					return fmt.Errorf("reading requests: %w", err)
				default:
					return nil
				}
			}
			if err := s.handleLine(ctx, line, enc); err != nil {
				return err
			}
		}
	}
}

// handleLine decodes one request line and writes the response. A malformed
// line gets an error response and the loop keeps going.
func (s *server) handleLine(ctx context.Context, line string, enc *json.Encoder) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	var req serveRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.log.Warn("malformed request", "error", err)
		return enc.Encode(serveResponse{Error: "invalid JSON"})
	}

	s.log.Debug("request", "action", req.Action, "id", req.ID)
	return enc.Encode(s.handle(ctx, req))
}

func (s *server) handle(ctx context.Context, req serveRequest) serveResponse {
	switch req.Action {
	case "ping":
		return serveResponse{OK: true}

	case "version":
		return serveResponse{OK: true, ServerVersion: Version}

	case "open":
		return s.handleOpen(req)

	case "text":
		return s.handleText(req)

	case "close":
		return s.handleClose(req)

	case "assist":
		return s.handleAssist(ctx, req)

	default:
		return serveResponse{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}
}

// handleOpen registers a document under the given id. Reopening an id
// replaces the previous document.
func (s *server) handleOpen(req serveRequest) serveResponse {
	if req.ID == "" {
		return serveResponse{Error: "missing required field: id"}
	}

	doc := document.New(req.Text)
	s.mu.Lock()
	s.docs[req.ID] = doc
	s.mu.Unlock()

	snap := doc.Snapshot()
	return serveResponse{OK: true, ID: req.ID, Version: &snap.Version}
}

func (s *server) handleText(req serveRequest) serveResponse {
	doc, resp := s.lookup(req.ID)
	if doc == nil {
		return resp
	}

	snap := doc.Snapshot()
	return serveResponse{OK: true, ID: req.ID, Text: &snap.Text, Version: &snap.Version}
}

func (s *server) handleClose(req serveRequest) serveResponse {
	if req.ID == "" {
		return serveResponse{Error: "missing required field: id"}
	}

	s.mu.Lock()
	_, found := s.docs[req.ID]
	delete(s.docs, req.ID)
	s.mu.Unlock()

	if !found {
		return serveResponse{ID: req.ID, Error: fmt.Sprintf("unknown document: %s", req.ID)}
	}
	return serveResponse{OK: true, ID: req.ID}
}

// handleAssist runs one assist session on the named document. The handler
// goroutine owns document mutation for the session; the response carries the
// updated text and version.
func (s *server) handleAssist(ctx context.Context, req serveRequest) serveResponse {
	doc, resp := s.lookup(req.ID)
	if doc == nil {
		return resp
	}

	selections := make([]document.Range, 0, len(req.Selections))
	for _, sel := range req.Selections {
		selections = append(selections, document.Range{Start: sel[0], End: sel[1]})
	}

	model := req.Model
	if model == "" {
		model = s.currentModel()
	}

	opts := []assist.Option{assist.WithLogger(s.log)}
	if model != "" {
		opts = append(opts, assist.WithModel(core.ModelID(model)))
	}
	assistant := assist.New(s.client, opts...)

	res, runErr := assistant.Run(ctx, doc, selections)
	s.recordHistory(ctx, res, runErr)
	if runErr != nil {
		errResp := serveResponse{ID: req.ID, Error: runErr.Error()}
		if res != nil {
			errResp.SessionID = res.SessionID
		}
		return errResp
	}

	snap := doc.Snapshot()
	return serveResponse{
		OK:             true,
		ID:             req.ID,
		Text:           &snap.Text,
		Version:        &snap.Version,
		SessionID:      res.SessionID,
		InsertedChars:  res.InsertedChars,
		Events:         res.Events,
		DecodeFailures: res.DecodeFailures,
	}
}

func (s *server) lookup(id string) (*document.Document, serveResponse) {
	if id == "" {
		return nil, serveResponse{Error: "missing required field: id"}
	}

	s.mu.Lock()
	doc := s.docs[id]
	s.mu.Unlock()

	if doc == nil {
		return nil, serveResponse{ID: id, Error: fmt.Sprintf("unknown document: %s", id)}
	}
	return doc, serveResponse{}
}

// recordHistory appends the session to the store opened for the serve run.
func (s *server) recordHistory(ctx context.Context, res *assist.Result, runErr error) {
	if s.store == nil || res == nil {
		return
	}
	if err := s.store.Append(ctx, history.FromResult(res, runErr)); err != nil {
		s.log.Warn("recording session failed", "error", err)
	}
}
