package main

import (
	"os"

	"stock_dashboard/cmd/sync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
