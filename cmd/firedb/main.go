// Package main provides the firedb CLI application.
// firedb builds and queries the integrated wildfire observation store.
package main

import (
	"os"
)

func main() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
