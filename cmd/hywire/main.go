// Command hywire is the development server for hywire-powered pages: it
// serves a directory of demo markup alongside JSON signal, HTML
// fragment, and SSE ticker endpoints, with optional live reload.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
