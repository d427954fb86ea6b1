package main

import (
	"os"

	"financas/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(cli.NewApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
