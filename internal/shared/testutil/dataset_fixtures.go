package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SampleCSV is a three-row rental file spanning two seasons.
// Totals: 195 rentals, 150 registered, 45 casual.
const SampleCSV = `dateday,hr,season,weather_cond,registered,casual,count
2011-01-01,8,Winter,Clear,30,10,40
2011-01-01,17,Winter,Clear,50,5,55
2011-06-21,12,Summer,Misty,70,30,100
`

// HeaderOnlyCSV has the required columns and no records.
const HeaderOnlyCSV = "dateday,hr,season,weather_cond,registered,casual,count\n"

// WriteDataset writes content to name inside a fresh temp dir and
// returns the full path.
func WriteDataset(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dataset fixture: %v", err)
	}
	return path
}
