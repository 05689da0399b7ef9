package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"jumptoc/pkg/database"
)

func main() {
	var (
		chaptersOut = flag.String("chapters", "data/chapters.csv", "output CSV path for chapter records")
		batchesOut  = flag.String("batches", "data/batches.csv", "output CSV path for debut/finale batches")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportChapters(ctx, db, *chaptersOut); err != nil {
		log.Fatalf("export chapters failed: %v", err)
	}
	if err := exportBatches(ctx, db, *batchesOut); err != nil {
		log.Fatalf("export batches failed: %v", err)
	}

	log.Printf("exported chapters to %s and batches to %s", *chaptersOut, *batchesOut)
}

func exportChapters(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"series", "release_date", "placement", "chapter", "type", "toc_rank"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT series, release_date, placement, chapter, type, toc_rank
        FROM chapters
        ORDER BY release_date, placement
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			series      string
			releaseDate string
			placement   int
			chapter     sql.NullInt64
			typ         string
			tocRank     sql.NullInt64
		)
		if err := rows.Scan(&series, &releaseDate, &placement, &chapter, &typ, &tocRank); err != nil {
			return err
		}

		chapterStr := ""
		if chapter.Valid {
			chapterStr = strconv.FormatInt(chapter.Int64, 10)
		}
		rankStr := ""
		if tocRank.Valid {
			rankStr = strconv.FormatInt(tocRank.Int64, 10)
		}

		if err := w.Write([]string{
			series,
			releaseDate,
			strconv.Itoa(placement),
			chapterStr,
			typ,
			rankStr,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportBatches(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"start_date", "end_date", "added", "completed"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT start_date, end_date, added, completed
        FROM batches
        ORDER BY start_date
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			startDate string
			endDate   string
			added     int
			completed int
		)
		if err := rows.Scan(&startDate, &endDate, &added, &completed); err != nil {
			return err
		}

		if err := w.Write([]string{
			startDate,
			endDate,
			strconv.Itoa(added),
			strconv.Itoa(completed),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
