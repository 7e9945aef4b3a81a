// cmd/exif-analyzer/main.go
package main

import (
	"github.com/bstardust/exif-analyzer/internal/logger"
	"github.com/bstardust/exif-analyzer/pkg/cli"
)

func main() {
	// Initialize logger
	logger.Init()

	// Execute CLI
	cli.Execute()
}
