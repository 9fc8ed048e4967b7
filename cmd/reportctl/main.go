// reportctl generates and renders BioAge reports without the HTTP API.
//
// Usage:
//
//	reportctl questions --lang uk
//	reportctl generate --answers answers.yaml --lang ru --pdf report.pdf
//	reportctl render report.json --out report.pdf
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
