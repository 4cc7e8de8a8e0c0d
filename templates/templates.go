// Package templates carries the demo template set for the built-in page
// types. Deployments bring their own by pointing TEMPLATES_DIR at a
// directory on disk.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed *.html
var templatesFS embed.FS

// FS returns the embedded demo templates.
func FS() fs.FS {
	return templatesFS
}
