// Package site serves the embedded web front end.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded site to the root of mux. More specific
// routes registered elsewhere take precedence.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("/", http.FileServer(FS()))
}
