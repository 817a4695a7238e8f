package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// perfRecord is the CSV row layout of one phase sample.
type perfRecord struct {
	Phase      string  `csv:"phase"`
	DurationMS float64 `csv:"duration_ms"`
	Calls      int     `csv:"calls"`
}

// WriteSummaryCSV stores the per-phase timing breakdown as perf.csv in dir.
func (t *RunTimer) WriteSummaryCSV(dir string) error {
	path := filepath.Join(dir, "perf.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	samples := t.Samples()
	records := make([]perfRecord, 0, len(samples))
	for _, s := range samples {
		records = append(records, perfRecord{
			Phase:      s.Phase,
			DurationMS: float64(s.Duration.Microseconds()) / 1000.0,
			Calls:      s.Calls,
		})
	}
	if err := gocsv.Marshal(&records, f); err != nil {
		return fmt.Errorf("writing perf summary: %w", err)
	}
	return nil
}
