// internal/commands/docs.go
package storyqa

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mwiater/storyqa/internal/pdftext"
	"github.com/mwiater/storyqa/internal/tui"
)

// docsCmd groups document utilities.
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Work with the QA source documents",
}

// docsCheckCmd implements 'docs check', reporting how much text each
// configured PDF exposes.
var docsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether each language PDF has extractable text",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config()
		out := cmd.OutOrStdout()

		docsDir := cfg.QA.DocsDir
		if dir, _ := cmd.Flags().GetString("docs"); dir != "" {
			docsDir = dir
		}

		for _, lang := range cfg.QA.Languages {
			if lang.Document == "" {
				continue
			}
			path := lang.Document
			if !filepath.IsAbs(path) {
				path = filepath.Join(docsDir, path)
			}
			fmt.Fprintln(out, tui.HeaderStyle.Render(fmt.Sprintf("[%s] %s", lang.Code, path)))

			report, err := pdftext.Inspect(path)
			if err != nil {
				fmt.Fprintln(out, tui.ErrorStyle.Render("  Error: "+err.Error()))
				continue
			}
			fmt.Fprintf(out, "  Pages: %d\n", report.Pages)
			for i, n := range report.PageLengths {
				fmt.Fprintf(out, "  Page %d: %d characters\n", i+1, n)
			}
			fmt.Fprintf(out, "  Total text length: %d\n", report.TotalLength)
			if report.HasText {
				fmt.Fprintln(out, "  ✓ PDF has extractable text")
			} else {
				fmt.Fprintln(out, "  ✗ PDF appears to be image-based (sample content will be used)")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsCheckCmd)
	docsCheckCmd.Flags().String("docs", "", "directory holding the language PDFs (overrides qa.docsDir)")
}
