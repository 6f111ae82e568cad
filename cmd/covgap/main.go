// Package main is the entry point for the covgap CLI tool.
package main

import (
	"github.com/covgap/covgap/internal/cmd"
)

func main() {
	cmd.Execute()
}
