// internal/commands/generate.go
package storyqa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/storyqa/internal/generation"
	"github.com/mwiater/storyqa/internal/tui"
	"github.com/mwiater/storyqa/internal/util"
)

const wrapWidth = 100

// errEmptyPrompt is shown when generate is called without prompt text.
var errEmptyPrompt = errors.New("Please enter a prompt to generate a story.")

// generateCmd implements 'generate', which writes a story from a prompt.
var generateCmd = &cobra.Command{
	Use:   "generate [prompt...]",
	Short: "Generate a story from a prompt with gpt2, flan-t5 or bart",
	Long: `Generate a story continuing or expanding the given prompt. Sampling flags
default to the configured generation parameters (template "story" unless set).`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("model", "m", "gpt2", "model to use: "+strings.Join(generation.ListAvailableModels(), ", "))
	generateCmd.Flags().Int("max-length", 500, "maximum generation length in tokens (>= 1)")
	generateCmd.Flags().Float64("temperature", 0.7, "sampling temperature (0, 1]")
	generateCmd.Flags().Int("top-k", 50, "top-k sampling cutoff (>= 1)")
	generateCmd.Flags().Float64("top-p", 0.9, "nucleus sampling threshold (0, 1]")
	generateCmd.Flags().Int64("seed", 0, "seed for reproducible sampling")
	generateCmd.Flags().Bool("no-spinner", false, "disable the progress spinner")
}

// buildGenerationRequest merges the configured parameters with any flags the
// user changed.
func buildGenerationRequest(cmd *cobra.Command, prompt string) generation.GenerationRequest {
	params := config().Generation.Parameters
	req := generation.GenerationRequest{Prompt: prompt}

	req.ModelName, _ = cmd.Flags().GetString("model")
	req.MaxLength, _ = cmd.Flags().GetInt("max-length")
	req.Temperature, _ = cmd.Flags().GetFloat64("temperature")
	req.TopK, _ = cmd.Flags().GetInt("top-k")
	req.TopP, _ = cmd.Flags().GetFloat64("top-p")

	if !cmd.Flags().Changed("max-length") && params.MaxLength != nil {
		req.MaxLength = *params.MaxLength
	}
	if !cmd.Flags().Changed("temperature") && params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if !cmd.Flags().Changed("top-k") && params.TopK != nil {
		req.TopK = *params.TopK
	}
	if !cmd.Flags().Changed("top-p") && params.TopP != nil {
		req.TopP = *params.TopP
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		req.Seed = &seed
	} else if params.Seed != nil {
		seed := *params.Seed
		req.Seed = &seed
	}
	return req
}

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return errEmptyPrompt
	}

	req := buildGenerationRequest(cmd, prompt)

	rt, err := newRuntime(config())
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var result generation.GenerationResult
	work := func() error {
		var genErr error
		result, genErr = rt.dispatcher.Generate(ctx, req)
		return genErr
	}

	out := cmd.OutOrStdout()
	if noSpinner, _ := cmd.Flags().GetBool("no-spinner"); noSpinner {
		err = work()
	} else {
		err = tui.RunWithSpinner(out, "Generating your story...", work)
	}
	if err != nil {
		return fmt.Errorf("error generating story: %w", err)
	}

	profile, _ := generation.Profile(result.ModelName)
	fmt.Fprintln(out, tui.HeaderStyle.Render("Generated Story"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, util.WrapToWidth(result.Text, wrapWidth))
	fmt.Fprintln(out)
	fmt.Fprintln(out, tui.CaptionStyle.Render(fmt.Sprintf("Word count: %d", result.WordCount)))
	fmt.Fprintln(out, tui.CaptionStyle.Render(fmt.Sprintf("Model: %s (%s, %s) | %s | %.1fs",
		profile.Info.DisplayName, profile.Info.Architecture, profile.Info.Parameters, profile.Decoding, result.Elapsed.Seconds())))
	return nil
}
