package viewer

import (
	"context"
	"time"

	"github.com/drummonds/bibview/apiclient"
)

// DefaultPollInterval matches the refresh rate of the jobs page
const DefaultPollInterval = 2 * time.Second

// EntrySource is the backend as seen by the poller
type EntrySource interface {
	Status(ctx context.Context, docID string) (*apiclient.Status, error)
	Entries(ctx context.Context, docID string) ([]apiclient.Entry, error)
}

// Poller periodically fetches a document's analysis status and its entries
// until every entry is done.
type Poller struct {
	Source   EntrySource
	DocID    string
	Interval time.Duration

	OnEntries func(entries []apiclient.Entry)
	OnStatus  func(status apiclient.Status)
	OnError   func(err error)
}

// Run loads the entries once and then polls on every tick. It returns nil
// once the backend reports completed == total with total > 0, or the context
// error if ctx is cancelled first. Fetch failures are reported and retried
// on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	p.loadEntries(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		status, err := p.Source.Status(ctx, p.DocID)
		if err != nil {
			p.fail(err)
			continue
		}
		Logger.Debug("Polled analysis status", "docID", p.DocID, "completed", status.Completed, "total", status.Total)
		if p.OnStatus != nil {
			p.OnStatus(*status)
		}

		p.loadEntries(ctx)

		if status.Done() {
			Logger.Info("Analysis complete, stopping poll", "docID", p.DocID, "total", status.Total)
			return nil
		}
	}
}

func (p *Poller) loadEntries(ctx context.Context) {
	entries, err := p.Source.Entries(ctx, p.DocID)
	if err != nil {
		p.fail(err)
		return
	}
	if p.OnEntries != nil {
		p.OnEntries(entries)
	}
}

func (p *Poller) fail(err error) {
	Logger.Warn("Poll failed", "docID", p.DocID, "error", err)
	if p.OnError != nil {
		p.OnError(err)
	}
}
