package effects

import "time"

const (
	flashOpacity = 1.0
	dimOpacity   = 0.95
	flashStep    = 50 * time.Millisecond
)

// runFlicker simulates lightning on the layer until owner stops being the
// controller's current effect or stop is closed.
func (c *Controller) runFlicker(owner Effect, stop <-chan struct{}) {
	ticker := time.NewTicker(c.flicker.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if !c.isCurrent(owner) {
			return
		}
		if c.flicker.Rand() >= c.flicker.Probability {
			continue
		}
		c.strike(stop)
	}
}

func (c *Controller) strike(stop <-chan struct{}) {
	c.layer.SetOpacity(flashOpacity)
	for _, v := range []float64{dimOpacity, flashOpacity} {
		select {
		case <-stop:
			c.layer.SetOpacity(flashOpacity)
			return
		case <-time.After(flashStep):
		}
		c.layer.SetOpacity(v)
	}
}
