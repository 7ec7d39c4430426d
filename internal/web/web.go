// Package web embeds the upload page and its assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var content embed.FS

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// IndexHTML returns the upload page.
func IndexHTML() []byte {
	b, err := content.ReadFile("static/index.html")
	if err != nil {
		panic(err)
	}
	return b
}
