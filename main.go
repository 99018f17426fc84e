// Package main is the entry point for the fitsync application
package main

import (
	"github.com/fitsync/fitsync/cmd"
)

func main() {
	cmd.Execute()
}
