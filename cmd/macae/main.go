package main

import (
	"fmt"
	"os"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
