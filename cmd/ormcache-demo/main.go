// Package main provides the entry point for the ormcache demo CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goliatone/go-orm-cache/internal/demo"
)

func main() {
	app := demo.New()

	if err := app.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
