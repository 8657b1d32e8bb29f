package corpus

import (
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

var markdownParser = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// Title returns the text of the first heading in a markdown document, or ""
// when the document has no headings.
func Title(source []byte) (string, error) {
	doc := markdownParser.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(6),
		toc.Compact(true),
	)
	if err != nil {
		return "", fmt.Errorf("inspect TOC: %w", err)
	}
	return firstTitle(tree.Items), nil
}

func firstTitle(items toc.Items) string {
	for _, item := range items {
		if title := strings.TrimSpace(string(item.Title)); title != "" {
			return title
		}
		if title := firstTitle(item.Items); title != "" {
			return title
		}
	}
	return ""
}

// titleOrStem falls back to the file name without its extension.
func titleOrStem(content []byte, relPath string) string {
	if title, err := Title(content); err == nil && title != "" {
		return title
	}
	base := path.Base(relPath)
	return strings.TrimSuffix(base, path.Ext(base))
}
