// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/scribe/assist"
	"github.com/petal-labs/scribe/cli/config"
	"github.com/petal-labs/scribe/cli/keystore"
	"github.com/petal-labs/scribe/history"
	"github.com/petal-labs/scribe/openai"
)

// keyName is the keystore entry assist and serve resolve credentials from.
const keyName = "openai"

// The factory types below are the seams tests use to swap real dependencies
// for in-memory ones.

// ConfigLoader reads the CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// KeystoreFactory opens the credential store.
type KeystoreFactory func() (keystore.Keystore, error)

// HistoryOpener opens the session log at a path.
type HistoryOpener func(path string) (*history.Store, error)

// ClientFactory builds the streaming chat client commands talk through.
type ClientFactory func(apiKey, baseURL string, log *slog.Logger) assist.StreamClient

// AppOption swaps one App dependency.
type AppOption func(*App)

// App wires the cobra command tree to its runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig  ConfigLoader
	newKeystore KeystoreFactory
	openHistory HistoryOpener
	newClient   ClientFactory
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer

	cfgFile    string
	model      string
	jsonOutput bool
	verbose    bool

	cfg     *config.Config
	cfgPath string
	log     *slog.Logger

	assistFile       string
	assistSelections []string
	assistWrite      bool
	historyLimit     int
	pruneDays        int
	initForce        bool
}

// WithConfigLoader replaces how config files are read. Nil leaves the
// default in place; the same holds for the other options.
func WithConfigLoader(fn ConfigLoader) AppOption {
	return func(a *App) {
		if fn != nil {
			a.loadConfig = fn
		}
	}
}

// WithKeystoreFactory replaces how the credential store is opened.
func WithKeystoreFactory(fn KeystoreFactory) AppOption {
	return func(a *App) {
		if fn != nil {
			a.newKeystore = fn
		}
	}
}

// WithHistoryOpener replaces how the session log is opened.
func WithHistoryOpener(fn HistoryOpener) AppOption {
	return func(a *App) {
		if fn != nil {
			a.openHistory = fn
		}
	}
}

// WithClientFactory replaces how chat clients are built.
func WithClientFactory(fn ClientFactory) AppOption {
	return func(a *App) {
		if fn != nil {
			a.newClient = fn
		}
	}
}

// WithIO redirects the process streams, any of which may be nil.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp assembles the command tree over default dependencies, with opts
// applied on top.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:  config.Load,
		newKeystore: keystore.NewKeystore,
		openHistory: history.Open,
		newClient:   defaultClientFactory,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		log:         slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "scribe",
		Short: "Scribe - streaming in-document assistant",
		Long: `Scribe streams chat-completion responses straight into documents.

Selections are framed with sentinel markers, sent to the model, and the
response is inserted near the end of the document as it arrives.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.scribe/config.yaml)")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model ID (e.g. gpt-4)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "machine-readable JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "debug logging")

	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newAssistCommand())
	root.AddCommand(a.newServeCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newHistoryCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.root.Execute()
}

// initConfig runs before every command: it loads the config file, fills in
// flag defaults, and builds the logger.
func (a *App) initConfig() error {
	a.cfgPath = a.cfgFile
	if a.cfgPath == "" {
		a.cfgPath = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	// Flags win over config values.
	if a.model == "" && cfg.DefaultModel != "" {
		a.model = cfg.DefaultModel
	}

	logCfg := *cfg
	if a.verbose {
		logCfg.LogLevel = "debug"
	}
	a.log = logCfg.NewLogger(a.stderr)

	return nil
}

// resolveAPIKey looks up the service credential: keystore entry first, then
// the environment. ok is false when neither holds one; absence is not an
// error, commands decline silently.
func (a *App) resolveAPIKey() (key string, ok bool, err error) {
	ks, err := a.newKeystore()
	if err != nil {
		return "", false, fmt.Errorf("failed to open keystore: %w", err)
	}

	key, err = ks.Get(keyName)
	if err == nil {
		return key, true, nil
	}
	var notFound *keystore.ErrKeyNotFound
	if !errors.As(err, &notFound) {
		return "", false, fmt.Errorf("failed to read keystore: %w", err)
	}

	if key = os.Getenv(openai.DefaultAPIKeyEnvVar); key != "" {
		return key, true, nil
	}
	return "", false, nil
}

func defaultClientFactory(apiKey, baseURL string, log *slog.Logger) assist.StreamClient {
	opts := []openai.Option{openai.WithLogger(log)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	return openai.New(apiKey, opts...)
}

// Execute builds an App with default dependencies and runs it. This is the
// entry point main uses.
func Execute() error {
	return NewApp().Execute()
}
