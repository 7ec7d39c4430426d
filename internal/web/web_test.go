package web

import (
	"bytes"
	"io/fs"
	"testing"
)

func TestIndexHTML(t *testing.T) {
	b := IndexHTML()
	if !bytes.Contains(b, []byte(`name="file"`)) {
		t.Fatal("upload form must post the file field")
	}
}

func TestStaticAssets(t *testing.T) {
	for _, name := range []string{"index.html", "app.js", "style.css"} {
		if _, err := fs.Stat(Static(), name); err != nil {
			t.Fatalf("missing asset %s: %v", name, err)
		}
	}
}
