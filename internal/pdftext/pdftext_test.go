// internal/pdftext/pdftext_test.go
package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writePDF builds a minimal single-page PDF whose page shows text.
func writePDF(t *testing.T, path, text string) {
	t.Helper()

	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
}

func TestExtractReadsText(t *testing.T) {
	text := strings.Repeat("The Sun is a star at the centre of the solar system. ", 6)
	path := filepath.Join(t.TempDir(), "english solar.pdf")
	writePDF(t, path, text)

	got := Extract(path)
	if !strings.Contains(got, "The Sun is a star") {
		t.Fatalf("expected extracted text, got %q", got)
	}
	if strings.Contains(got, "Solar System Overview") {
		t.Fatal("sample content used despite extractable text")
	}
}

func TestExtractShortTextFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "french solar.pdf")
	writePDF(t, path, "Bonjour")

	got := Extract(path)
	if !strings.Contains(got, "Système Solaire") {
		t.Fatalf("expected French sample content, got %q", got)
	}
}

func TestExtractUnreadableFallsBack(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file string
		want string
	}{
		{file: "English Solar.pdf", want: "Solar System Overview"},
		{file: "hindi solar.pdf", want: "सौरमंडल"},
		{file: "malayalam solar.pdf", want: "സൗരയൂഥം"},
		{file: "notes.pdf", want: "Sample content about solar system."},
	}

	for _, tc := range tests {
		path := filepath.Join(dir, tc.file)
		if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
		if got := Extract(path); !strings.Contains(got, tc.want) {
			t.Fatalf("Extract(%s) = %q, want it to contain %q", tc.file, got, tc.want)
		}
	}

	if got := Extract(filepath.Join(dir, "missing english.pdf")); !strings.Contains(got, "Solar System Overview") {
		t.Fatalf("expected sample content for missing file, got %q", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"sample_docs/english solar.pdf":   "english",
		"sample_docs/HINDI.pdf":           "hindi",
		"/tmp/french/other.pdf":           "",
		"docs/malayalam solar system.pdf": "malayalam",
	}
	for path, want := range tests {
		if got := DetectLanguage(path); got != want {
			t.Fatalf("DetectLanguage(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "english solar.pdf")
	writePDF(t, good, strings.Repeat("Jupiter is the largest planet. ", 3))

	report, err := Inspect(good)
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}
	if report.Pages != 1 || len(report.PageLengths) != 1 || !report.HasText {
		t.Fatalf("unexpected report: %+v", report)
	}

	short := filepath.Join(dir, "short.pdf")
	writePDF(t, short, "Hi")
	report, err = Inspect(short)
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}
	if report.HasText {
		t.Fatalf("expected short PDF to be reported as lacking text: %+v", report)
	}

	bad := filepath.Join(dir, "bad.pdf")
	if err := os.WriteFile(bad, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Inspect(bad); err == nil {
		t.Fatal("expected error for unreadable PDF")
	}
}
