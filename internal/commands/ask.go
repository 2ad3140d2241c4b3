// internal/commands/ask.go
package storyqa

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/storyqa/internal/qa"
	"github.com/mwiater/storyqa/internal/speech"
	"github.com/mwiater/storyqa/internal/tui"
	"github.com/mwiater/storyqa/internal/util"
)

// askCmd implements 'ask', which answers a question about the solar-system
// documents in every configured language.
var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Answer a solar-system question in English, Hindi, French and Malayalam",
	Long: `Answer a question from the configured documents. The question comes from
the arguments or, with --audio, from a transcribed recording. With --speak each
answer is also written to <language>_answer.mp3.`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().String("audio", "", "transcribe the question from this audio file")
	askCmd.Flags().StringSlice("lang", nil, "answer only in these languages (codes or names)")
	askCmd.Flags().Bool("speak", false, "write each answer to <language>_answer.mp3")
	askCmd.Flags().String("docs", "", "directory holding the language PDFs (overrides qa.docsDir)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := config()
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if audio, _ := cmd.Flags().GetString("audio"); audio != "" {
		text, err := speech.NewTranscriber(cfg).Transcribe(ctx, audio)
		if err != nil {
			return fmt.Errorf("transcribe question: %w", err)
		}
		question = text
		fmt.Fprintf(out, "%s %s\n\n", tui.CaptionStyle.Render("Recognized:"), question)
	}
	if question == "" {
		return qa.ErrEmptyQuestion
	}

	docsDir := cfg.QA.DocsDir
	if dir, _ := cmd.Flags().GetString("docs"); dir != "" {
		docsDir = dir
	}
	documents := qa.LoadDocuments(docsDir, cfg.QA.Languages)

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := qa.NewService(cfg.QA, rt.dispatcher, documents)
	if err != nil {
		return err
	}

	langs, _ := cmd.Flags().GetStringSlice("lang")
	answers, err := svc.AskAll(ctx, question, langs...)
	if err != nil {
		return err
	}

	speak, _ := cmd.Flags().GetBool("speak")
	var synth *speech.Synthesizer
	if speak {
		synth = speech.NewSynthesizer(cfg)
	}

	for _, a := range answers {
		fmt.Fprintln(out, tui.HeaderStyle.Render(a.Language.Name+" Answer"))
		if a.Err != nil {
			fmt.Fprintln(out, tui.ErrorStyle.Render("Error: "+a.Err.Error()))
			fmt.Fprintln(out)
			continue
		}
		fmt.Fprintln(out, util.WrapToWidth(a.Text, wrapWidth))
		if synth != nil {
			filename := strings.ToLower(a.Language.Name) + "_answer.mp3"
			if path, err := synth.Speak(ctx, a.Text, a.Language.Voice, filename); err != nil {
				fmt.Fprintln(out, tui.ErrorStyle.Render("Audio error: "+err.Error()))
			} else {
				fmt.Fprintln(out, tui.CaptionStyle.Render("Audio: "+path))
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}
