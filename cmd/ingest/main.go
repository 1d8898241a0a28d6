// cmd/ingest/main.go
// Imports course and round workbooks from INPUT_DIR and writes blank
// import templates.
//
// Usage:
//
//	go run ./cmd/ingest courses
//	go run ./cmd/ingest rounds --input-dir data/raw
//	go run ./cmd/ingest template round
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{fs: afero.NewOsFs(), out: os.Stdout, v: viper.New()}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
