package main

import (
	"fmt"
	"os"

	"github.com/kubeblast/kubeblast/pkg/commands"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kubeblast: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cmd := commands.NewCmd()
	return cmd.Execute()
}
