package tracking

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pthm-cable/collimation/beam"
	"github.com/pthm-cable/collimation/elements"
	"github.com/pthm-cable/collimation/lattice"
)

// elementLoss holds the particles one line entry removed.
type elementLoss struct {
	entry int
	lost  []beam.Lost
}

// lineResult is the outcome of tracking a batch through the whole line.
type lineResult struct {
	survivors *beam.Batch
	losses    []elementLoss // in line order
}

// trackLine runs the line over b, splitting it across workers when the beam
// is large enough. Chunks are merged back in their original order, so the
// result does not depend on the worker count.
func (t *Tracker) trackLine(b *beam.Batch) (lineResult, error) {
	n := b.Len()
	workers := t.opts.Workers
	if workers <= 1 || n < t.opts.ParallelThreshold || n < workers {
		return trackChunk(t.line, b)
	}

	results := make([]lineResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := range workers {
		chunk := b.Slice(w*n/workers, (w+1)*n/workers)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[w], errs[w] = trackChunk(t.line, chunk)
		}()
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return lineResult{}, err
	}

	merged := lineResult{survivors: beam.NewBatch(0, b.Ref)}
	byEntry := make([][]beam.Lost, len(t.line))
	for _, r := range results {
		merged.survivors.Append(r.survivors)
		for _, el := range r.losses {
			byEntry[el.entry] = append(byEntry[el.entry], el.lost...)
		}
	}
	for i, lost := range byEntry {
		if len(lost) > 0 {
			merged.losses = append(merged.losses, elementLoss{entry: i, lost: lost})
		}
	}
	return merged, nil
}

// trackChunk runs every entry of line over b in order, stopping once the
// batch is empty.
func trackChunk(line []lattice.Entry, b *beam.Batch) (lineResult, error) {
	res := lineResult{survivors: b}
	for i, entry := range line {
		status, err := entry.Element.Track(b)
		if err != nil {
			return res, fmt.Errorf("%s: %w", entry.Name, err)
		}
		if lost := b.DrainLost(); len(lost) > 0 {
			res.losses = append(res.losses, elementLoss{entry: i, lost: lost})
		}
		if status == elements.StatusBeamLost {
			break
		}
	}
	return res, nil
}
