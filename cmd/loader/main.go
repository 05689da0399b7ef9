package main

import (
	"context"
	"flag"
	"log"
	"time"

	"jumptoc/internal/chapters"
	"jumptoc/internal/fetch"
	"jumptoc/internal/pipeline"
	"jumptoc/internal/reconcile"
	"jumptoc/internal/runs"
	"jumptoc/internal/series"
	"jumptoc/internal/toc"
	"jumptoc/pkg/config"
	"jumptoc/pkg/database"
)

func main() {
	var (
		start       = flag.String("start", "", "URL of the issue page to start from (required)")
		weeks       = flag.Int("weeks", 0, "number of additional past issues to walk")
		settingPath = flag.String("config", "jumptoc.ini", "path to the settings file")
		timeout     = flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	)
	flag.Parse()

	if *start == "" {
		log.Fatal("-start is required")
	}

	settings, err := config.Load(*settingPath)
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	seriesRepo := series.NewRepo(db)
	dir, err := seriesRepo.Directory(ctx)
	if err != nil {
		log.Fatalf("load series directory: %v", err)
	}

	fetcher := fetch.NewHTTPFetcher(settings.UserAgent, settings.RequestsPerSecond)
	runner := &pipeline.Runner{
		Walker:    fetch.NewWalker(fetcher, settings.URLStem),
		Builder:   toc.NewBuilder(settings.DayOffset, settings.RankFloor),
		Store:     chapters.NewRepo(db),
		Runs:      runs.NewRepo(db),
		Tolerance: settings.IssueTolerance,
	}

	corrections := reconcile.Corrections(settings.TitleCorrections)
	result, err := runner.Run(ctx, dir, corrections, *start, *weeks)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	rep := result.Report
	log.Printf("[loader] run %s: %d/%d issues processed, %d valid, %d quarantined, %d absences, %d inferred",
		rep.ID, rep.IssuesProcessed, rep.IssuesWalked, rep.ValidRecords,
		rep.Quarantined, rep.AbsencesAdded, rep.InferredCount)

	for _, w := range rep.Warnings {
		log.Printf("[loader] warning: %s", w)
	}
	for _, s := range rep.MissingBaseline {
		log.Printf("[loader] no chapter baseline for %q, numbers left blank", s)
	}
	for _, q := range result.Quarantined {
		if q.Suggestion != "" {
			log.Printf("[loader] quarantined %q (%s) - did you mean %q?",
				q.Record.Series, q.Record.ReleaseDate, q.Suggestion)
			continue
		}
		log.Printf("[loader] quarantined %q (%s)", q.Record.Series, q.Record.ReleaseDate)
	}
}
