// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/lexdraft/pkg/types"
)

// Markdown renders doc as a Markdown document: the title as a level-one
// heading and each section as a numbered level-two heading.
func Markdown(doc *types.GeneratedDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	for i, s := range doc.Sections {
		fmt.Fprintf(&b, "## %d. %s\n\n%s\n\n", i+1, s.Title, strings.TrimSpace(s.Content))
	}
	if !doc.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "---\n\n_Generated %s_\n", doc.GeneratedAt.Format("2006-01-02"))
	}
	return b.String()
}

// WriteMarkdown writes the Markdown rendering of doc to w.
func WriteMarkdown(w io.Writer, doc *types.GeneratedDocument) error {
	_, err := io.WriteString(w, Markdown(doc))
	return err
}

// ExportMarkdown writes the Markdown rendering of doc to path.
func ExportMarkdown(path string, doc *types.GeneratedDocument) error {
	if err := os.WriteFile(path, []byte(Markdown(doc)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
