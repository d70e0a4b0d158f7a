package node

import "time"

const chosenPollInterval = 20 * time.Millisecond

// pollTicker is a trivial wrapper around time.Ticker so watchChosen reads
// the same regardless of how the poll interval is eventually tuned.
type pollTicker struct {
	t *time.Ticker
}

func newPollTicker() *pollTicker {
	return &pollTicker{t: time.NewTicker(chosenPollInterval)}
}

func (p *pollTicker) C() <-chan time.Time { return p.t.C }

func (p *pollTicker) Stop() { p.t.Stop() }
