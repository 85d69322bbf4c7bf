package main

import (
	"os"

	"github.com/sql-miner/sqlminer/cmd/sqlminer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
