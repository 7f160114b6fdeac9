package main

import (
	"fmt"
	"os"
)

func main() {
	err := Execute()
	closeLogSink()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
