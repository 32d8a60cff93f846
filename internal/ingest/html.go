package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

func (l *Loader) loadHTML(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open html: %w", err)
	}
	defer func() { _ = f.Close() }()

	root, err := html.Parse(f)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var sb strings.Builder
	extractHTMLText(root, &sb)
	return sb.String(), nil
}

// extractHTMLText walks the node tree collecting text, skipping script and
// style subtrees.
func extractHTMLText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		extractHTMLText(child, sb)
	}
}
