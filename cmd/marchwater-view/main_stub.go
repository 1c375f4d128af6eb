//go:build !viewer

// Package main opens an interactive window on a running simulation. The
// window needs SDL2 and OpenGL, so it is only built with -tags viewer.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "marchwater-view was built without the viewer tag; rebuild with: go build -tags viewer ./cmd/marchwater-view")
	os.Exit(2)
}
