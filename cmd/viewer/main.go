package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"StockExtractor/internal/config"
	"StockExtractor/internal/viewer"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}

	path, err := viewer.FindLatest(cfg.Paths.RawData)
	if errors.Is(err, viewer.ErrNoFiles) {
		fmt.Println("No data files found!")
		return
	}
	if err != nil {
		log.Fatalf("[FATAL] find latest price file: %v", err)
	}

	tbl, err := viewer.Load(path)
	if err != nil {
		log.Fatalf("[FATAL] load %s: %v", path, err)
	}
	if err := viewer.Render(os.Stdout, viewer.Summarize(tbl)); err != nil {
		log.Fatalf("[FATAL] render summary: %v", err)
	}
}
