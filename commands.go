package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drummonds/bibview/bibliography"
	"github.com/drummonds/bibview/config"
	"github.com/drummonds/bibview/engine"
	"github.com/drummonds/bibview/engine/pdfrenderer"
)

func newRenderCmd() *cobra.Command {
	var (
		page     int
		out      string
		renderer string
		dpi      int
		maxWidth int
	)
	cmd := &cobra.Command{
		Use:   "render <file.pdf>",
		Short: "Render one page of a PDF to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = fmt.Sprintf("page-%d.png", page)
			}
			if err := renderPage(args[0], page, out, renderer, dpi, maxWidth); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote page %d to %s\n", page, out)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "1-based page number")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output PNG file (default page-<n>.png)")
	cmd.Flags().StringVar(&renderer, "renderer", "pdfium", "PDF renderer: pdfium or fitz")
	cmd.Flags().IntVar(&dpi, "dpi", pdfrenderer.DefaultDPI, "Render resolution")
	cmd.Flags().IntVar(&maxWidth, "max-width", 0, "Scale pages wider than this down, 0 keeps the rendered size")
	return cmd
}

func renderPage(path string, page int, out, kind string, dpi, maxWidth int) error {
	r, err := pdfrenderer.NewRenderer(kind, dpi)
	if err != nil {
		return err
	}
	defer r.Close()

	doc, err := r.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer doc.Close()

	img, err := doc.RenderPage(page)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := pdfrenderer.EncodePNG(f, img, maxWidth); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", out, err)
	}
	return f.Close()
}

func newEntriesCmd() *cobra.Command {
	var (
		check   bool
		contact string
	)
	cmd := &cobra.Command{
		Use:   "entries <file.pdf>",
		Short: "List the bibliography entries of a PDF",
		Long: `Lists the entries found under the last References or Bibliography heading.
With --check every entry is also looked up at doi.org or Crossref.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := bibliography.ExtractText(args[0])
			if err != nil {
				return err
			}
			entries := bibliography.SplitEntries(text)
			if len(entries) == 0 {
				return fmt.Errorf("no bibliography found in %s", args[0])
			}

			var checker engine.EntryChecker
			if check {
				checker = engine.NewChecker(config.ServerConfig{ContactEmail: contact})
			}
			return printEntries(cmd.Context(), cmd.OutOrStdout(), entries, checker)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Look each entry up")
	cmd.Flags().StringVar(&contact, "contact", os.Getenv("CONTACT_EMAIL"), "Contact address sent to Crossref")
	return cmd
}

// printEntries writes one numbered line per entry, followed by the lookup
// result when checker is set. A failed lookup is printed and the rest carry on.
func printEntries(ctx context.Context, w io.Writer, entries []string, checker engine.EntryChecker) error {
	for i, entry := range entries {
		fmt.Fprintf(w, "%d. %s\n", i+1, entry)
		if checker == nil {
			continue
		}
		fmt.Fprintf(w, "   %s\n", checkLine(ctx, checker, entry))
	}
	return nil
}

func checkLine(ctx context.Context, checker engine.EntryChecker, entry string) string {
	analysis, err := checker.Check(ctx, entry)
	switch {
	case err != nil:
		return "error: " + err.Error()
	case analysis.Found:
		return "found: " + analysis.Summary
	default:
		return "not found: " + analysis.Summary
	}
}

func newCheckCmd() *cobra.Command {
	var contact string
	cmd := &cobra.Command{
		Use:   "check <entry text>...",
		Short: "Look up a single bibliography entry or DOI",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checker := engine.NewChecker(config.ServerConfig{ContactEmail: contact})
			entry := strings.Join(args, " ")
			fmt.Fprintln(cmd.OutOrStdout(), checkLine(cmd.Context(), checker, entry))
			return nil
		},
	}
	cmd.Flags().StringVar(&contact, "contact", os.Getenv("CONTACT_EMAIL"), "Contact address sent to Crossref")
	return cmd
}
