// Package appfs embeds the migrations, templates and assets shipped with the binaries.
package appfs

import "embed"

// Layouts start with an underscore, hence the all: prefix.
//
//go:embed migrations all:templates assets
var FS embed.FS
