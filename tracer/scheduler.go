package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split frame into blocks of variable height and assign to the pool
	// of tracers using feedback collected from previous frames.
	//
	// This function returns the block height assignment for each tracer
	// in the input list. Assignments always add up to frameH.
	Schedule(tracers []Tracer, frameH uint32) []uint32
}

// The perfect scheduler assumes that the volume of tracing work between two
// subsequent frames is approximately the same.
type perfectScheduler struct {
	blockAssignment []uint32
}

// Create a new perfect scheduler instance
func NewPerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split frame into blocks of variable height and assign to the pool
// of tracers using feedback collected from previous frames.
//
// The first frame (or the first frame after the number of tracers changes)
// is split according to each tracer's speed estimate. For subsequent frames
// the scheduler uses the following formula for estimating the workload for
// tracer w and frame i+1:
// w_i, f_i+1 = (blockH,w_i / time,w_i) / Σ(blockH_i-1 / time,i-1)
func (sch *perfectScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	if len(tracers) == 0 {
		return nil
	}

	weights := make([]float64, len(tracers))
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = make([]uint32, len(tracers))
		for idx, tr := range tracers {
			weights[idx] = float64(tr.SpeedEstimate())
		}
	} else {
		// Use last frame statistics
		for idx, tr := range tracers {
			stats := tr.Stats()
			weights[idx] = float64(stats.BlockH) / float64(max(stats.BlockTime, 1))
		}
	}

	var total float64
	for _, w := range weights {
		total += w
	}

	var scheduledRows uint32
	for idx, w := range weights {
		rows := 1.0
		if total > 0 {
			rows = math.Max(1.0, math.Floor(w*float64(frameH)/total))
		}
		sch.blockAssignment[idx] = uint32(rows)
		scheduledRows += sch.blockAssignment[idx]
	}

	sch.fitRows(scheduledRows, frameH)
	return sch.blockAssignment
}

// Adjust the block assignment so that the rows add up to frameH. Missing
// rows are appended to the first tracer; extra rows are taken from the
// largest blocks while keeping at least one row per tracer where possible.
func (sch *perfectScheduler) fitRows(scheduledRows, frameH uint32) {
	if scheduledRows <= frameH {
		sch.blockAssignment[0] += frameH - scheduledRows
		return
	}

	for ; scheduledRows > frameH; scheduledRows-- {
		largest := 0
		for idx, rows := range sch.blockAssignment {
			if rows > sch.blockAssignment[largest] {
				largest = idx
			}
		}
		if sch.blockAssignment[largest] == 0 {
			return
		}
		sch.blockAssignment[largest]--
	}
}
