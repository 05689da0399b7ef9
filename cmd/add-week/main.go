package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"jumptoc/internal/chapters"
	"jumptoc/internal/week"
	"jumptoc/pkg/database"
)

// weekFile is the JSON shape this tool consumes:
//
//	{
//	  "release_date": "2025-08-03",
//	  "recency": "latest",
//	  "entries": [
//	    {"series": "One Piece", "type": "Cover"},
//	    {"series": "Sakamoto Days", "rank": 1}
//	  ]
//	}
type weekFile struct {
	ReleaseDate string       `json:"release_date"`
	Recency     string       `json:"recency,omitempty"`
	Entries     []week.Entry `json:"entries"`
}

func main() {
	var (
		inPath  = flag.String("file", "", "path to the week JSON file (required)")
		recency = flag.String("recency", "", "override the file's recency mode (latest or previous)")
	)
	flag.Parse()

	if *inPath == "" {
		log.Fatal("-file is required")
	}

	raw, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("read %s: %v", *inPath, err)
	}

	var wf weekFile
	if err := json.Unmarshal(raw, &wf); err != nil {
		log.Fatalf("parse %s: %v", *inPath, err)
	}
	if *recency != "" {
		wf.Recency = *recency
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := chapters.NewRepo(db)
	inserted, warnings, err := week.Apply(ctx, repo, wf.ReleaseDate, wf.Entries, wf.Recency)
	if err != nil {
		log.Fatalf("add week failed: %v", err)
	}

	for _, w := range warnings {
		log.Printf("[add-week] warning: %s", w)
	}
	log.Printf("[add-week] %s: %d of %d records inserted", wf.ReleaseDate, inserted, len(wf.Entries))
}
