package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/petal-labs/scribe/assist"
)

func (a *App) newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a starter configuration file",
		Long: `Create a starter configuration file.

Writes a commented config.yaml and creates its directory if needed.
Without a path the file goes to the default location (~/.scribe/config.yaml).

Example:
  scribe init
  scribe init ./scribe.yaml --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runInit,
	}

	cmd.Flags().BoolVar(&a.initForce, "force", false, "Overwrite an existing configuration file")

	return cmd
}

func (a *App) runInit(cmd *cobra.Command, args []string) error {
	path := a.cfgPath
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !a.initForce {
		return exitWithCode(ExitValidation, fmt.Errorf("%s already exists (use --force to overwrite)", path))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return exitWithCode(ExitValidation, fmt.Errorf("creating directory %s: %w", dir, err))
		}
	}

	model := a.model
	if model == "" {
		model = string(assist.DefaultModel)
	}

	if err := generateFile(path, configTemplate, templateData{Model: model}); err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("writing %s: %w", path, err))
	}

	fmt.Fprintf(a.stdout, "Created %s\n\n", path)
	fmt.Fprintln(a.stdout, "Next steps:")
	fmt.Fprintln(a.stdout, "  scribe keys set openai")
	fmt.Fprintln(a.stdout, "  scribe assist --file draft.md")

	return nil
}

type templateData struct {
	Model string
}

func generateFile(path string, tmplContent string, data templateData) error {
	tmpl, err := template.New("file").Parse(tmplContent)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

var configTemplate = `# Scribe configuration
default_model: {{.Model}}

# Level is one of debug, info, warn, error. Format is text or json.
log_level: info
log_format: text

# Completed sessions are recorded in a local SQLite database.
# Set disabled: true to turn recording off.
history:
  retention_days: 30
  prune_schedule: "0 3 * * *"
`
