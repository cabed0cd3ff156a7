package quest

import "math"

// Progress summarizes how far along a track a run is.
type Progress struct {
	Total      int
	Completed  int
	Remaining  int
	Ratio      float64
	Percentage float64
	Done       bool
}

// TrackProgress computes progress metrics for completed out of total steps.
// Completed above total is clamped; negative inputs are a contract error.
func TrackProgress(total, completed int) (Progress, error) {
	if total < 0 {
		return Progress{}, domainErr("progress total %d must not be negative", total)
	}
	if completed < 0 {
		return Progress{}, domainErr("progress completed %d must not be negative", completed)
	}
	if completed > total {
		completed = total
	}

	p := Progress{
		Total:     total,
		Completed: completed,
		Remaining: total - completed,
	}
	if total > 0 {
		p.Ratio = float64(completed) / float64(total)
		p.Done = completed == total
	}
	p.Percentage = math.Round(p.Ratio*10000) / 100
	return p, nil
}
