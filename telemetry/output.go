package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/collimation/config"
)

// csvFile is an output file whose header is written with the first record.
type csvFile struct {
	name          string
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return fmt.Errorf("writing %s: %w", c.name, err)
		}
		c.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, c.f); err != nil {
		return fmt.Errorf("writing %s: %w", c.name, err)
	}
	return nil
}

// OutputManager handles run output: losses.csv, turns.csv, perf.csv and a
// copy of the configuration.
type OutputManager struct {
	dir    string
	losses *csvFile
	turns  *csvFile
	perf   *csvFile
}

// NewOutputManager creates the output directory and files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, out := range []struct {
		dst  **csvFile
		name string
	}{
		{&om.losses, "losses.csv"},
		{&om.turns, "turns.csv"},
		{&om.perf, "perf.csv"},
	} {
		f, err := os.Create(filepath.Join(dir, out.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", out.name, err)
		}
		*out.dst = &csvFile{name: out.name, f: f}
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteLosses appends loss events to losses.csv.
func (om *OutputManager) WriteLosses(events []LossEvent) error {
	if om == nil || len(events) == 0 {
		return nil
	}
	return om.losses.write(events)
}

// WriteTurn appends a turn record to turns.csv.
func (om *OutputManager) WriteTurn(stats TurnStats) error {
	if om == nil {
		return nil
	}
	return om.turns.write([]TurnStats{stats})
}

// WritePerf appends a performance record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, turn int32) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(turn)})
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var errs []error
	for _, c := range []*csvFile{om.losses, om.turns, om.perf} {
		if c != nil && c.f != nil {
			errs = append(errs, c.f.Close())
		}
	}
	return errors.Join(errs...)
}
