// Package wizard collects run spec fields interactively and renders the
// initial YAML file.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/promptlabs/promptscope/internal/models"
)

// RunSpecAnswers holds all fields collected during the interactive wizard.
type RunSpecAnswers struct {
	Name           string
	SoftPrompt     string
	Models         []int
	ConfigPath     string
	K              int
	OracleCommand  string
	UseTestSet     bool
}

const runSpecTemplate = `# promptscope run spec
name: {{ .Name }}
soft_prompt: {{ .SoftPrompt }}

# Model pool: training-run model numbers the soft prompt was trained against.
models: [{{ joinInts .Models }}]

# Training config the soft prompt and pool models were built with.
config: {{ .ConfigPath }}

# Neighbor count for the embedding vote.
k: {{ .K }}
{{- if .UseTestSet }}
use_test_set: true
{{- end }}

weights_dir: weights
embeddings_dir: embeddings

oracle:
  type: command
  config:
    command: {{ .OracleCommand }}
`

// RunWizard runs an interactive huh form to collect run spec fields.
// If initialName is non-empty, it pre-populates the name field.
func RunWizard(in io.Reader, out io.Writer, initialName string) (*RunSpecAnswers, error) {
	var (
		name       = initialName
		softPrompt string
		modelsRaw  string
		configPath string
		kRaw       = strconv.Itoa(models.DefaultK)
		command    string
		useTestSet bool
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Evaluation name").
				Description("A short name for this evaluation").
				Placeholder("my-evaluation").
				Value(&name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Soft prompt").
				Description("Name of the trained soft prompt to evaluate").
				Placeholder("sp-demo").
				Value(&softPrompt).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("soft prompt name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Model pool").
				Description("Comma-separated model numbers, e.g. 0,3,7").
				Placeholder("0,1").
				Value(&modelsRaw).
				Validate(func(s string) error {
					_, err := models.ParsePool(s)
					return err
				}),
			huh.NewInput().
				Title("Training config").
				Description("Path to the training config file").
				Placeholder("configs/demo.yml").
				Value(&configPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("config path is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Neighbor count (k)").
				Value(&kRaw).
				Validate(func(s string) error {
					k, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || k < 1 {
						return fmt.Errorf("k must be a positive integer")
					}
					return nil
				}),
			huh.NewInput().
				Title("Oracle command").
				Description("Executable that answers loss queries").
				Placeholder("python evaluate.py").
				Value(&command),
			huh.NewConfirm().
				Title("Evaluate on the test split?").
				Value(&useTestSet),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	pool, err := models.ParsePool(modelsRaw)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(pool))
	for i, m := range pool {
		ids[i] = int(m)
	}
	k, err := strconv.Atoi(strings.TrimSpace(kRaw))
	if err != nil {
		return nil, fmt.Errorf("invalid k: %w", err)
	}

	return &RunSpecAnswers{
		Name:          strings.TrimSpace(name),
		SoftPrompt:    strings.TrimSpace(softPrompt),
		Models:        ids,
		ConfigPath:    strings.TrimSpace(configPath),
		K:             k,
		OracleCommand: strings.TrimSpace(command),
		UseTestSet:    useTestSet,
	}, nil
}

// GenerateRunSpecYAML renders the run spec file from the collected answers.
func GenerateRunSpecYAML(answers *RunSpecAnswers) (string, error) {
	tmpl, err := template.New("runspec").Funcs(template.FuncMap{
		"joinInts": func(ids []int) string {
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = strconv.Itoa(id)
			}
			return strings.Join(parts, ", ")
		},
	}).Parse(runSpecTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, answers); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}
