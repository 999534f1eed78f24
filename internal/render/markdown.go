// Package render turns reviewer notes written in Markdown into HTML
package render

import (
	"github.com/russross/blackfriday/v2"
)

const extensions = blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs

// Notes renders markdown to HTML. Raw HTML in the input is dropped so that
// reviewer notes cannot inject markup into pages.
func Notes(markdown string) string {
	if markdown == "" {
		return ""
	}
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML | blackfriday.Safelink | blackfriday.NofollowLinks | blackfriday.HrefTargetBlank,
	})
	return string(blackfriday.Run([]byte(markdown), blackfriday.WithRenderer(renderer), blackfriday.WithExtensions(extensions)))
}
