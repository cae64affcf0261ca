package main

import (
	"fmt"
	"os"

	"github.com/iliyamo/parkease/internal/cli"
	"github.com/iliyamo/parkease/internal/config"
)

func main() {
	config.LoadDotEnv()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
