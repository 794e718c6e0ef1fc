// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sigil-dev/ragd/internal/config"
	"github.com/sigil-dev/ragd/internal/secrets"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// initWizardStep tracks which step of the wizard is active.
type initWizardStep int

const (
	stepEmbedding     initWizardStep = iota // select embedding provider
	stepEmbeddingKey                        // enter its API key
	stepGeneration                          // select generation provider
	stepGenerationKey                       // enter its API key, skipped when shared
	stepSaving                              // writing keyring and config (spinner)
	stepDone
	stepError
)

// initResult holds the collected wizard configuration.
type initResult struct {
	Embedding     string
	EmbeddingKey  string
	Generation    string
	GenerationKey string
}

type configWrittenMsg struct{ path string }

// --- lipgloss styles ---

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

var (
	embeddingProviders  = []string{"openai", "google"}
	generationProviders = []string{"deepseek", "openai", "anthropic", "google"}
)

// initModel is the bubbletea model for the init wizard.
type initModel struct {
	step          initWizardStep
	choiceIdx     int
	keyInput      textinput.Model
	spinner       spinner.Model
	result        initResult
	validationErr string
	configPath    string
	secretStore   secrets.Store
	errFinal      error
	force         bool
}

func newInitModel(store secrets.Store) initModel {
	key := textinput.New()
	key.Placeholder = "paste API key here"
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return initModel{
		step:        stepEmbedding,
		keyInput:    key,
		spinner:     sp,
		secretStore: store,
	}
}

func (m initModel) Init() tea.Cmd {
	return nil
}

func (m initModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case configWrittenMsg:
		m.step = stepDone
		m.configPath = msg.path
		return m, tea.Quit

	case error:
		m.step = stepError
		m.errFinal = msg
		return m, tea.Quit
	}

	if m.step == stepEmbeddingKey || m.step == stepGenerationKey {
		var cmd tea.Cmd
		m.keyInput, cmd = m.keyInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m initModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.step {
	case stepEmbedding:
		return m.handleChoice(msg, embeddingProviders)
	case stepGeneration:
		return m.handleChoice(msg, generationProviders)
	case stepEmbeddingKey, stepGenerationKey:
		return m.handleKeyInput(msg)
	}
	return m, nil
}

func (m initModel) handleChoice(msg tea.KeyMsg, options []string) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.choiceIdx > 0 {
			m.choiceIdx--
		}
	case "down", "j":
		if m.choiceIdx < len(options)-1 {
			m.choiceIdx++
		}
	case "enter":
		picked := options[m.choiceIdx]
		m.choiceIdx = 0
		m.validationErr = ""

		if m.step == stepEmbedding {
			m.result.Embedding = picked
			m.step = stepEmbeddingKey
			cmd := m.focusKey()
			return m, cmd
		}

		m.result.Generation = picked
		if picked == m.result.Embedding {
			m.result.GenerationKey = m.result.EmbeddingKey
			return m.save()
		}
		m.step = stepGenerationKey
		cmd := m.focusKey()
		return m, cmd
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *initModel) focusKey() tea.Cmd {
	m.keyInput.SetValue("")
	m.keyInput.Focus()
	return textinput.Blink
}

func (m initModel) handleKeyInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		key := strings.TrimSpace(m.keyInput.Value())
		if key == "" {
			m.validationErr = "API key must not be empty"
			return m, nil
		}
		m.validationErr = ""
		m.keyInput.Blur()

		if m.step == stepEmbeddingKey {
			m.result.EmbeddingKey = key
			m.step = stepGeneration
			return m, nil
		}
		m.result.GenerationKey = key
		return m.save()
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m initModel) save() (tea.Model, tea.Cmd) {
	m.step = stepSaving
	return m, tea.Batch(m.spinner.Tick, writeConfigCmd(m.result, m.secretStore, m.force))
}

func (m initModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("  ragd setup  ") + "\n\n")

	switch m.step {
	case stepEmbedding:
		b.WriteString(promptStyle.Render("Step 1/2: Embedding provider") + "\n\n")
		m.renderChoices(&b, embeddingProviders)
		b.WriteString("\n" + dimStyle.Render("↑/↓ to navigate  enter to select  q to quit"))

	case stepGeneration:
		b.WriteString(promptStyle.Render("Step 2/2: Answer generation provider") + "\n\n")
		m.renderChoices(&b, generationProviders)
		b.WriteString("\n" + dimStyle.Render("↑/↓ to navigate  enter to select  q to quit"))

	case stepEmbeddingKey, stepGenerationKey:
		name := m.result.Embedding
		if m.step == stepGenerationKey {
			name = m.result.Generation
		}
		b.WriteString(promptStyle.Render(name+" API key") + "\n\n")
		b.WriteString(m.keyInput.View() + "\n")
		if m.validationErr != "" {
			b.WriteString("\n" + errorStyle.Render("  "+m.validationErr) + "\n")
		}
		b.WriteString("\n" + dimStyle.Render("enter to continue  ctrl+c to quit"))

	case stepSaving:
		b.WriteString(m.spinner.View() + " Saving keys to the OS keyring…\n")

	case stepDone:
		b.WriteString(successStyle.Render("  Setup complete!  ") + "\n\n")
		if m.configPath != "" {
			b.WriteString(dimStyle.Render("Config written to: "+m.configPath) + "\n\n")
		}
		b.WriteString("Run " + promptStyle.Render("ragd serve") + ", then " + promptStyle.Render("ragd ingest") +
			" and " + promptStyle.Render("ragd chat") + ".\n")

	case stepError:
		b.WriteString(errorStyle.Render("Setup failed: "+m.errFinal.Error()) + "\n")
	}

	return boxStyle.Render(b.String())
}

func (m initModel) renderChoices(b *strings.Builder, options []string) {
	for i, name := range options {
		if i == m.choiceIdx {
			b.WriteString(selectedStyle.Render("  > "+name) + "\n")
		} else {
			b.WriteString(dimStyle.Render("    "+name) + "\n")
		}
	}
}

func writeConfigCmd(result initResult, store secrets.Store, force bool) tea.Cmd {
	return func() tea.Msg {
		path, err := storeSecretsAndWriteConfig(result, store, force)
		if err != nil {
			return err
		}
		return configWrittenMsg{path: path}
	}
}

// --- Config generation ---

type initProvider struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

type initConfig struct {
	Networking struct {
		Listen string `yaml:"listen"`
	} `yaml:"networking"`
	Providers map[string]initProvider `yaml:"providers"`
	Models    struct {
		Embedding           string `yaml:"embedding"`
		EmbeddingDimensions int    `yaml:"embedding_dimensions"`
		Generation          string `yaml:"generation"`
		MaxTokens           int    `yaml:"max_tokens"`
	} `yaml:"models"`
	Retrieval struct {
		TopK     int    `yaml:"top_k"`
		CacheTTL string `yaml:"cache_ttl"`
		Metric   string `yaml:"metric"`
	} `yaml:"retrieval"`
	Storage struct {
		Index     map[string]string `yaml:"index"`
		Documents map[string]string `yaml:"documents"`
		History   map[string]string `yaml:"history"`
	} `yaml:"storage"`
	Cache map[string]string `yaml:"cache"`
}

// keyringRef names the keyring entry holding a provider's API key.
func keyringRef(providerName string) string {
	return providerName + "_api_key"
}

// GenerateConfigYAML renders a ragd.yaml for the wizard result. API keys are
// referenced through keyring:// URIs and never written in plain text.
func GenerateConfigYAML(result initResult) ([]byte, error) {
	var c initConfig
	c.Networking.Listen = "127.0.0.1:5000"

	c.Providers = map[string]initProvider{}
	for _, name := range []string{result.Embedding, result.Generation} {
		p := initProvider{APIKey: "keyring://" + secrets.ServiceName + "/" + keyringRef(name)}
		if name == "deepseek" {
			p.Endpoint = "https://api.deepseek.com/v1"
		}
		c.Providers[name] = p
	}

	c.Models.Embedding, c.Models.EmbeddingDimensions = defaultEmbeddingModel(result.Embedding)
	c.Models.Generation = defaultGenerationModel(result.Generation)
	c.Models.MaxTokens = 1024

	c.Retrieval.TopK = 3
	c.Retrieval.CacheTTL = "1h"
	c.Retrieval.Metric = "cosine"

	c.Storage.Index = map[string]string{"backend": "sqlite"}
	c.Storage.Documents = map[string]string{"backend": "sqlite"}
	c.Storage.History = map[string]string{"backend": "sqlite"}
	c.Cache = map[string]string{"backend": "memory"}

	body, err := yaml.Marshal(&c)
	if err != nil {
		return nil, ragerr.Errorf(ragerr.CodeConfigWriteFailure, "encoding config: %w", err)
	}
	return append([]byte("# ragd configuration, generated by ragd init\n\n"), body...), nil
}

func defaultEmbeddingModel(providerName string) (string, int) {
	switch providerName {
	case "google":
		return "google/text-embedding-004", 768
	default:
		return "openai/text-embedding-3-small", 1536
	}
}

func defaultGenerationModel(providerName string) string {
	switch providerName {
	case "openai":
		return "openai/gpt-4o-mini"
	case "anthropic":
		return "anthropic/claude-sonnet-4-5"
	case "google":
		return "google/gemini-2.0-flash"
	default:
		return "deepseek/deepseek-chat"
	}
}

// storeSecretsAndWriteConfig saves the API keys to the keyring and writes
// the config. An existing config is kept unless force is set. Keys already
// stored are not rolled back when the write fails.
func storeSecretsAndWriteConfig(result initResult, store secrets.Store, force bool) (string, error) {
	keys := map[string]string{result.Embedding: result.EmbeddingKey, result.Generation: result.GenerationKey}
	for name, key := range keys {
		if err := store.Store(secrets.ServiceName, keyringRef(name), key); err != nil {
			return "", ragerr.Wrapf(err, ragerr.CodeSecretStoreFailure, "storing %s API key", name)
		}
	}

	cfgPath, err := configPathForWrite()
	if err != nil {
		return "", err
	}

	if !force {
		if _, statErr := os.Stat(cfgPath); statErr == nil {
			return "", ragerr.Errorf(ragerr.CodeConfigAlreadyExists,
				"config file already exists at %s; use --force to overwrite", cfgPath)
		}
	}

	body, err := GenerateConfigYAML(result)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", ragerr.Errorf(ragerr.CodeConfigWriteFailure, "creating config directory %s: %w", dir, err)
	}
	if err := os.WriteFile(cfgPath, body, 0o600); err != nil {
		return "", ragerr.Errorf(ragerr.CodeConfigWriteFailure, "writing config to %s: %w", cfgPath, err)
	}

	return cfgPath, nil
}

// configPathForWrite is swapped in tests.
var configPathForWrite = config.DefaultConfigPath

// --- Cobra command ---

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactive setup wizard",
		Long: `Run an interactive wizard that picks the embedding and generation
providers and stores their API keys in the OS keyring. The config file
references the keys through keyring:// URIs.`,
		RunE: runInit,
	}

	cmd.Flags().Bool("force", false, "overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !isTerminal(f) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(),
			"ragd init requires an interactive terminal.\n"+
				"To configure ragd non-interactively, edit ~/.config/ragd/ragd.yaml directly.")
		return ragerr.New(ragerr.CodeCLISetupFailure, "ragd init: not an interactive terminal")
	}

	force, _ := cmd.Flags().GetBool("force")

	m := newInitModel(secretStoreFactory())
	m.force = force

	finalModel, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return ragerr.Errorf(ragerr.CodeCLISetupFailure, "init wizard error: %w", err)
	}

	fm, ok := finalModel.(initModel)
	if !ok {
		return ragerr.New(ragerr.CodeCLISetupFailure, "unexpected model type after wizard")
	}
	if fm.errFinal != nil {
		return ragerr.Errorf(ragerr.CodeCLISetupFailure, "init failed: %w", fm.errFinal)
	}
	if fm.configPath != "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", fm.configPath)
	}
	return nil
}

// isTerminal reports whether f is a terminal file descriptor.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
