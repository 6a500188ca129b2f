package templates

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var staticFiles embed.FS

// Static is the client asset tree served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
