package appconfig

import (
	"fmt"
	"io"
	"sort"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		defaults := Default()
		cfg = &defaults
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Metrics:         %v\n", cfg.Metrics)
	if cfg.Metrics {
		fmt.Fprintf(out, "  Metrics Path:    %s\n", cfg.MetricsFilePath())
	}
	fmt.Fprintf(out, "  Request Timeout: %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())

	fmt.Fprintln(out, "\nHosts:")
	for _, host := range cfg.Hosts {
		fmt.Fprintf(out, "  %s (%s) %s\n", host.Name, host.Type, host.URL)
	}

	fmt.Fprintln(out, "\nBackends:")
	names := make([]string, 0, len(cfg.Backends))
	for name := range cfg.Backends {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := cfg.Backends[name]
		fmt.Fprintf(out, "  %-8s -> %s @ %s\n", name, b.Model, b.Host)
	}

	p := cfg.Generation.Parameters
	fmt.Fprintln(out, "\nGeneration:")
	fmt.Fprintf(out, "  Template:        %s\n", normalizeProfileName(cfg.Generation.ParameterTemplate))
	fmt.Fprintf(out, "  Max Length:      %s\n", formatInt(p.MaxLength))
	fmt.Fprintf(out, "  Temperature:     %s\n", formatFloat(p.Temperature))
	fmt.Fprintf(out, "  Top-k:           %s\n", formatInt(p.TopK))
	fmt.Fprintf(out, "  Top-p:           %s\n", formatFloat(p.TopP))
	if p.Seed != nil {
		fmt.Fprintf(out, "  Seed:            %d\n", *p.Seed)
	}

	fmt.Fprintln(out, "\nQuestion Answering:")
	fmt.Fprintf(out, "  Docs Dir:        %s\n", cfg.QA.DocsDir)
	fmt.Fprintf(out, "  Answer Model:    %s (max %d)\n", cfg.QA.AnswerModel, cfg.QA.AnswerMaxLength)
	for _, lang := range cfg.QA.Languages {
		fmt.Fprintf(out, "  %-3s %-6s %s\n", lang.Code, lang.Strategy, lang.Document)
	}

	fmt.Fprintln(out, "\nSpeech:")
	fmt.Fprintf(out, "  STT URL:         %s (model %s)\n", cfg.Speech.STTURL, cfg.Speech.STTModel)
	fmt.Fprintf(out, "  TTS URL:         %s\n", cfg.Speech.TTSURL)
	fmt.Fprintf(out, "  TTS Cache TTL:   %s\n", cfg.TTSCacheTTL())
}

func formatInt(v *int) string {
	if v == nil {
		return "unset"
	}
	return fmt.Sprintf("%d", *v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return "unset"
	}
	return fmt.Sprintf("%.2f", *v)
}
