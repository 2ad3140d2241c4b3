// internal/commands/root_test.go
package storyqa

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/generation"
	"github.com/mwiater/storyqa/internal/logging"
)

type stubBackend struct {
	suffix string
	calls  *int
}

func (b stubBackend) Generate(ctx context.Context, inv generation.Invocation) (string, error) {
	if b.calls != nil {
		*b.calls++
	}
	if inv.EchoPrompt {
		return inv.Prompt + b.suffix, nil
	}
	return b.suffix, nil
}

// useStubRuntime swaps in a dispatcher whose backends answer locally.
func useStubRuntime(t *testing.T, suffix string) *int {
	t.Helper()
	calls := 0
	prev := newRuntime
	newRuntime = func(cfg *appconfig.Config) (*runtime, error) {
		loader := func(ctx context.Context, profile generation.ModelProfile) (generation.Backend, error) {
			return stubBackend{suffix: suffix, calls: &calls}, nil
		}
		return &runtime{dispatcher: generation.NewDispatcher(generation.NewRegistry(loader))}, nil
	}
	t.Cleanup(func() { newRuntime = prev })
	return &calls
}

func resetFlags(cmd *cobra.Command) {
	resetFlagSet(cmd.Flags())
}

// resetFlagSet restores defaults, leaving the config and env paths alone.
func resetFlagSet(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "env" {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// useConfig points the root command at a config file for one test.
func useConfig(t *testing.T, content string) string {
	t.Helper()
	for _, cmd := range []*cobra.Command{rootCmd, generateCmd, askCmd, docsCheckCmd, showConfigCmd} {
		resetFlags(cmd)
	}
	resetFlagSet(rootCmd.PersistentFlags())

	path := writeTempConfig(t, content)
	prevCfgFile := cfgFile
	prevEnvFile := envFile
	cfgFile = path
	envFile = filepath.Join(t.TempDir(), "missing.env")
	viper.SetConfigFile(path)
	t.Cleanup(func() {
		cfgFile = prevCfgFile
		envFile = prevEnvFile
		viper.SetConfigFile(prevCfgFile)
		currentConfig = nil
		_ = logging.Close()
	})
	return path
}

func logConfig(t *testing.T) string {
	t.Helper()
	logPath := filepath.ToSlash(filepath.Join(t.TempDir(), "storyqa.log"))
	return `"logFile": "` + logPath + `"`
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	_, err := rootCmd.ExecuteC()
	return buf.String(), err
}

// TestRootCmd verifies running the root command with an invalid subcommand reports an error.
func TestRootCmd(t *testing.T) {
	useConfig(t, "{"+logConfig(t)+"}")

	_, err := execute(t, "nonexistent")
	if err == nil {
		t.Fatal("Expected an error for a nonexistent command, but got none")
	}
	if !strings.Contains(err.Error(), `unknown command "nonexistent" for "storyqa"`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPersistentPreRunEUsesFlagValues(t *testing.T) {
	configPath := useConfig(t, `{"timeout": 30, "metrics": true, `+logConfig(t)+`}`)

	_ = rootCmd.PersistentFlags().Set("debug", "true")
	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}

	if currentConfig == nil || currentConfig.ConfigPath != configPath {
		t.Fatalf("expected config loaded with path %s, got %+v", configPath, currentConfig)
	}
	if !currentConfig.Debug {
		t.Fatal("expected debug flag to flow into config")
	}
	if !currentConfig.Metrics || currentConfig.TimeoutSeconds != 30 {
		t.Fatalf("expected file values, got metrics=%v timeout=%d", currentConfig.Metrics, currentConfig.TimeoutSeconds)
	}
	if len(currentConfig.Backends) != 3 {
		t.Fatalf("expected default backend bindings, got %+v", currentConfig.Backends)
	}
}

func TestPersistentPreRunERejectsInvalidConfig(t *testing.T) {
	useConfig(t, `{"hosts":[{"name":"no-url"}]}`)

	err := rootCmd.PersistentPreRunE(rootCmd, []string{})
	if err == nil || !strings.Contains(err.Error(), "config failed validation") {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}

func TestPersistentPreRunEMissingConfigUsesDefaults(t *testing.T) {
	useConfig(t, "{}")
	cfgFile = filepath.Join(t.TempDir(), "absent.json")
	_ = rootCmd.PersistentFlags().Set("logFile", filepath.Join(t.TempDir(), "x.log"))

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}
	if currentConfig.Hosts[0].Type != "huggingface" {
		t.Fatalf("expected default host, got %+v", currentConfig.Hosts)
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("STORYQA_TEST_TOKEN=abc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("STORYQA_TEST_TOKEN") })
	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if os.Getenv("STORYQA_TEST_TOKEN") != "abc" {
		t.Fatal("expected token from .env")
	}
}

func TestGenerateCommand(t *testing.T) {
	useConfig(t, "{"+logConfig(t)+"}")
	calls := useStubRuntime(t, " and the dragon flew home.")

	out, err := execute(t, "generate", "--no-spinner", "--model", "gpt2", "A", "lonely", "dragon")
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if *calls != 1 {
		t.Fatalf("expected one backend call, got %d", *calls)
	}
	for _, want := range []string{"Generated Story", "and the dragon flew home.", "Word count: 5", "GPT-2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	useConfig(t, "{"+logConfig(t)+"}")
	calls := useStubRuntime(t, "x")

	_, err := execute(t, "generate", "--no-spinner", "   ")
	if !errors.Is(err, errEmptyPrompt) {
		t.Fatalf("expected empty prompt error, got %v", err)
	}
	if *calls != 0 {
		t.Fatal("backend must not be called for an empty prompt")
	}
}

func TestGenerateValidationError(t *testing.T) {
	useConfig(t, "{"+logConfig(t)+"}")
	calls := useStubRuntime(t, "x")

	_, err := execute(t, "generate", "--no-spinner", "--temperature", "1.5", "prompt")
	var verr *generation.ValidationError
	if !errors.As(err, &verr) || verr.Field != "temperature" {
		t.Fatalf("expected temperature validation error, got %v", err)
	}
	if *calls != 0 {
		t.Fatal("backend must not be called for invalid parameters")
	}

	_, err = execute(t, "generate", "--no-spinner", "--model", "llama", "prompt")
	var uerr *generation.UnknownModelError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected unknown model error, got %v", err)
	}
}

func TestBuildGenerationRequestUsesConfig(t *testing.T) {
	useConfig(t, `{"generation": {"parameterTemplate": "focused", "parameters": {"top_k": 7}}, `+logConfig(t)+`}`)
	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}

	req := buildGenerationRequest(generateCmd, "p")
	if req.TopK != 7 {
		t.Fatalf("expected top_k from config, got %d", req.TopK)
	}
	if req.Seed == nil || *req.Seed != 42 {
		t.Fatalf("expected focused template seed, got %v", req.Seed)
	}

	_ = generateCmd.Flags().Set("top-k", "11")
	req = buildGenerationRequest(generateCmd, "p")
	if req.TopK != 11 {
		t.Fatalf("expected flag to override config, got %d", req.TopK)
	}
}

func TestAskCommand(t *testing.T) {
	useConfig(t, "{"+logConfig(t)+"}")
	useStubRuntime(t, "The Sun is a star.")

	docs := t.TempDir()
	for _, name := range []string{"english solar.pdf", "french solar.pdf"} {
		if err := os.WriteFile(filepath.Join(docs, name), []byte("scan"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, err := execute(t, "ask", "--docs", docs, "What", "is", "the", "sun?")
	if err != nil {
		t.Fatalf("ask error: %v", err)
	}
	for _, want := range []string{"English Answer", "The Sun is a star.", "French Answer", "Soleil", "Hindi PDF not available", "Malayalam PDF not available"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	out, err = execute(t, "ask", "--docs", docs, "--lang", "fr", "Mars?")
	if err != nil {
		t.Fatalf("ask --lang error: %v", err)
	}
	if strings.Contains(out, "English Answer") || !strings.Contains(out, "French Answer") {
		t.Fatalf("expected only French output:\n%s", out)
	}

	if _, err := execute(t, "ask"); err == nil {
		t.Fatal("expected error for empty question")
	}
}

func TestDocsCheckCommand(t *testing.T) {
	useConfig(t, "{"+logConfig(t)+"}")

	docs := t.TempDir()
	if err := os.WriteFile(filepath.Join(docs, "hindi solar.pdf"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "docs", "check", "--docs", docs)
	if err != nil {
		t.Fatalf("docs check error: %v", err)
	}
	if !strings.Contains(out, "[hi]") || !strings.Contains(out, "Error:") {
		t.Fatalf("expected per-language report with errors:\n%s", out)
	}
}

func TestModelsCommands(t *testing.T) {
	useConfig(t, `{"metricsPath": "`+filepath.ToSlash(filepath.Join(t.TempDir(), "m.json"))+`", `+logConfig(t)+`}`)

	out, err := execute(t, "models", "list")
	if err != nil {
		t.Fatalf("models list error: %v", err)
	}
	for _, want := range []string{"gpt2", "flan-t5", "bart", "google/flan-t5-base"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in models list:\n%s", want, out)
		}
	}

	out, err = execute(t, "models", "info")
	if err != nil || !strings.Contains(out, "BART") {
		t.Fatalf("models info failed (%v):\n%s", err, out)
	}
	if _, err := execute(t, "models", "info", "t5-xxl"); err == nil {
		t.Fatal("expected error for unknown model")
	}

	out, err = execute(t, "models", "stats")
	if err != nil || !strings.Contains(out, "No metrics recorded") {
		t.Fatalf("models stats failed (%v):\n%s", err, out)
	}
}

func TestShowConfigCommandOutput(t *testing.T) {
	configPath := useConfig(t, "{"+logConfig(t)+"}")

	out, err := execute(t, "--debug", "show", "config")
	if err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}
	for _, want := range []string{"Config file: " + configPath, "Debug:           true", "openai-community/gpt2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	out, err = execute(t, "show", "config", "--dump")
	if err != nil || !strings.Contains(out, "Backends") {
		t.Fatalf("show config --dump failed (%v):\n%s", err, out)
	}
}

func TestListCommands(t *testing.T) {
	useConfig(t, "{"+logConfig(t)+"}")

	out, err := execute(t, "list", "commands")
	if err != nil {
		t.Fatalf("list commands error: %v", err)
	}
	for _, want := range []string{"Commands and Subcommands:", "storyqa generate", "storyqa models stats", "storyqa docs check"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
