package reconcile

// defaultCorrections maps scraped-title variants seen in the wild to the
// canonical titles used in the series directory. Extra pairs can be added
// through the [corrections] section of the settings file.
var defaultCorrections = map[string]string{
	"Me and Roboco": "Me & Roboco",
	"WITCH WATCH":   "Witch Watch",
}

// Corrections returns the built-in correction table merged with extra
// pairs; extras win on conflict.
func Corrections(extra map[string]string) map[string]string {
	merged := make(map[string]string, len(defaultCorrections)+len(extra))
	for k, v := range defaultCorrections {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
