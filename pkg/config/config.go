package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// Settings controls the loader pipeline. Everything has a workable default
// so the loader runs without a config file; an ini file tweaks individual
// keys and can extend the title-correction table.
type Settings struct {
	// URLStem is prepended to the relative previous-issue links found on
	// each issue page.
	URLStem string
	// DayOffset is the gap in days between the date embedded in an issue
	// identifier and the actual U.S. release Sunday.
	DayOffset int
	// RequestsPerSecond throttles the issue fetcher.
	RequestsPerSecond float64
	// UserAgent is sent with every fetch.
	UserAgent string
	// IssueTolerance is the maximum issue-index gap between consecutive
	// debut/finale events that still belong to the same batch.
	IssueTolerance int
	// RankFloor: Normal chapters numbered at or below this are excluded
	// from the table-of-contents ranking.
	RankFloor int
	// TitleCorrections maps scraped-title variants to canonical titles,
	// merged over the built-in defaults.
	TitleCorrections map[string]string
}

func Default() Settings {
	return Settings{
		URLStem:           "https://www.jajanken.net",
		DayOffset:         15,
		RequestsPerSecond: 2,
		UserAgent:         "jumptoc/0.1 (weekly TOC tracker)",
		IssueTolerance:    3,
		RankFloor:         7,
		TitleCorrections:  map[string]string{},
	}
}

// Load reads settings from an ini file, falling back to defaults for any
// missing key. A missing file is not an error: defaults are returned.
//
//	[source]
//	url_stem = https://www.jajanken.net
//	day_offset = 15
//	requests_per_second = 2
//	user_agent = ...
//
//	[pipeline]
//	issue_tolerance = 3
//	rank_floor = 7
//
//	[corrections]
//	WITCH WATCH = Witch Watch
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return s, fmt.Errorf("load settings %s: %w", path, err)
	}

	src := cfg.Section("source")
	if v := src.Key("url_stem").String(); v != "" {
		s.URLStem = v
	}
	if v, err := src.Key("day_offset").Int(); err == nil && src.HasKey("day_offset") {
		s.DayOffset = v
	}
	if v, err := src.Key("requests_per_second").Float64(); err == nil && src.HasKey("requests_per_second") {
		s.RequestsPerSecond = v
	}
	if v := src.Key("user_agent").String(); v != "" {
		s.UserAgent = v
	}

	pipe := cfg.Section("pipeline")
	if v, err := pipe.Key("issue_tolerance").Int(); err == nil && pipe.HasKey("issue_tolerance") {
		s.IssueTolerance = v
	}
	if v, err := pipe.Key("rank_floor").Int(); err == nil && pipe.HasKey("rank_floor") {
		s.RankFloor = v
	}

	for _, key := range cfg.Section("corrections").Keys() {
		s.TitleCorrections[key.Name()] = key.String()
	}

	return s, nil
}
