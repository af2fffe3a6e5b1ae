// Package main is the single-binary entrypoint for the goat sandbox
// training pipeline.
package main

import "github.com/sirschrockalot/goat-sales-app-sub005/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
