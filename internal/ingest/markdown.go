package ingest

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ziadkadry99/parksync/internal/syncer"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// MarkdownToText renders markdown and strips the markup, leaving plain
// text suitable for chunking and embedding.
func MarkdownToText(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return syncer.StripHTML(buf.String()), nil
}
