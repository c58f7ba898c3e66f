package main

import (
	"fmt"
	"os"

	"github.com/yungbote/docindex-backend/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	// The API process runs the site ingest loop; page OCR runs in the
	// dedicated worker process.
	application.StartWorkers(false, true)

	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if err := application.Run(addr); err != nil {
		application.Log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
