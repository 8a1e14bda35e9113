// Package templates holds the frontend's HTML templates.
package templates

import "embed"

//go:embed *.html
var FS embed.FS
