package render

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// newConverter builds the HTML to Markdown converter. Reports use tables for
// pillar and palace charts, so the table plugin is always on.
func newConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithBulletListMarker("-"),
				commonmark.WithEmDelimiter("_"),
			),
			table.NewTablePlugin(),
		),
	)
}

// Markdown converts sanitized report HTML into Markdown.
func Markdown(src string) (string, error) {
	out, err := newConverter().ConvertString(src)
	if err != nil {
		return "", fmt.Errorf("convert report html: %w", err)
	}
	return strings.TrimSpace(out), nil
}
