package simulation

import "github.com/thrasher-corp/blotter/ledger"

// Publish replaces the current snapshot
func (p *Publisher) Publish(s *ledger.Snapshot) {
	p.snap.Store(s)
}

// Latest returns the last published snapshot, nil before the first bar or
// on a nil publisher
func (p *Publisher) Latest() *ledger.Snapshot {
	if p == nil {
		return nil
	}
	return p.snap.Load()
}
