package web

import "embed"

// TemplatesFS embeds the HTML pages served by the HTTP surface.
//
//go:embed templates/*.html
var TemplatesFS embed.FS
