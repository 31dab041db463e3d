// Package main enables fwcheck to execute as a CLI tool
package main

import (
	"os"

	"github.com/fwcheck/fwcheck/internal/app"
)

func main() {
	os.Exit(app.Run())
}
