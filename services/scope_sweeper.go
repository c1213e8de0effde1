package services

import (
	"time"

	"github.com/yeremiapane/table-order/utils"
)

// ScopeSweeper drops in-memory carts of idle tables. The persisted cart stays
// and is judged on the next mount.
type ScopeSweeper struct {
	Carts    *CartService
	StopChan chan struct{}
	Interval time.Duration
	now      func() time.Time
}

func NewScopeSweeper(carts *CartService, interval time.Duration) *ScopeSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ScopeSweeper{
		Carts:    carts,
		StopChan: make(chan struct{}),
		Interval: interval,
		now:      time.Now,
	}
}

func (ss *ScopeSweeper) Start() {
	go func() {
		ticker := time.NewTicker(ss.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ss.Sweep()
			case <-ss.StopChan:
				return
			}
		}
	}()
}

func (ss *ScopeSweeper) Stop() {
	close(ss.StopChan)
}

// Sweep evicts carts idle for longer than the inactivity window
func (ss *ScopeSweeper) Sweep() int {
	cutoff := ss.now().Add(-ss.Carts.InactivityWindow())
	evicted := ss.Carts.EvictIdle(cutoff)
	if evicted > 0 {
		utils.InfoLogger.Infof("Evicted %d idle table carts, %d still mounted", evicted, ss.Carts.Mounted())
	}
	return evicted
}
