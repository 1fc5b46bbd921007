package progressbar

import "time"

// timing samples the rate at most once per whole elapsed second. The rate is
// the units-per-second of the last sample minus the previous sample value,
// an incremental approximation rather than a true moving average.
type timing struct {
	now func() time.Time

	maxValue   float64
	prevTick   time.Time
	unitPerSec float64
	prevSample float64
}

func newTiming(now func() time.Time) *timing {
	return &timing{now: now}
}

func (t *timing) init(maxValue float64) {
	t.maxValue = maxValue
	t.prevTick = t.now()
	t.unitPerSec = 0
	t.prevSample = 0
}

func (t *timing) tick(unitValue float64) {
	totalSecs := int64(t.now().Sub(t.prevTick) / time.Second)
	if totalSecs < 1 {
		return
	}
	t.unitPerSec = unitValue/float64(totalSecs) - t.prevSample
	t.prevSample = unitValue
	t.prevTick = t.now()
}

func (t *timing) rate() int {
	return int(t.unitPerSec)
}
