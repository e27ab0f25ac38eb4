package main

import (
	"os"

	"github.com/phensley/less-scanner/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
