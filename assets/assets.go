// Package assets embeds the static files shipped with the binaries.
package assets

import "embed"

// FS holds every file under templates, including the `_base` layouts.
//
//go:embed all:templates
var FS embed.FS
