// Package main is archval, an offline checker that evaluates a saved design
// graph against a stage definition.
package main

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/archgraph/core/internal/logging"
)

func main() {
	slog.SetDefault(logging.New(logging.Config{Level: cmp.Or(os.Getenv("LOG_LEVEL"), "warn"), Service: "archval"}))

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		var incomplete *incompleteError
		if errors.As(err, &incomplete) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
