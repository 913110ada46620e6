package viewer

import (
	"context"
	"log/slog"
	"sync"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Document is the loaded PDF as seen by the coalescer. RenderPage draws the
// given 1-based page onto whatever surface the document is bound to and
// returns once the drawing has completed.
type Document interface {
	TotalPages() int
	RenderPage(ctx context.Context, page int) error
}

// RenderState is the coalescer's view of the rendering surface.
// PendingPage is 0 when no page is waiting.
type RenderState struct {
	Rendering   bool
	PendingPage int
	CurrentPage int
}

// Coalescer serialises page renders against a single surface. At most one
// render is in flight; requests arriving during a render collapse into the
// most recent one, which is rendered once the surface is free.
type Coalescer struct {
	doc Document
	ctx context.Context

	// OnPage is called with every requested page number as soon as it is
	// requested, before the page has been drawn. Calls follow the order in
	// which requests took effect; with concurrent callers a request already
	// overtaken by a later one is not reported, so the last call always
	// names CurrentPage. OnPage must not call back into the coalescer.
	OnPage func(page int)
	// OnError reports a failed render. Failures never stop a pending page
	// from being rendered.
	OnError func(page int, err error)

	mu    sync.Mutex
	idle  *sync.Cond
	state RenderState
	seq   uint64 // requests recorded, guarded by mu

	notifyMu sync.Mutex
	notified uint64 // seq of the last request passed to OnPage
}

// NewCoalescer creates an idle coalescer over doc. ctx is handed to every
// render; renders already started are never cancelled by the coalescer.
func NewCoalescer(ctx context.Context, doc Document) *Coalescer {
	c := &Coalescer{
		doc:   doc,
		ctx:   ctx,
		state: RenderState{CurrentPage: 1},
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// TotalPages returns the page count of the underlying document
func (c *Coalescer) TotalPages() int {
	return c.doc.TotalPages()
}

// RequestPage asks for page n to be drawn. The caller must clamp n to
// [1, TotalPages].
func (c *Coalescer) RequestPage(n int) {
	c.mu.Lock()
	start, seq := c.request(n)
	c.mu.Unlock()
	c.dispatch(n, start, seq)
}

// request records n and reports whether a new render must be started,
// along with the request's sequence number. Callers hold c.mu.
func (c *Coalescer) request(n int) (bool, uint64) {
	c.seq++
	c.state.CurrentPage = n
	if c.state.Rendering {
		c.state.PendingPage = n
		return false, c.seq
	}
	c.state.Rendering = true
	return true, c.seq
}

func (c *Coalescer) dispatch(page int, start bool, seq uint64) {
	c.notifyMu.Lock()
	if seq > c.notified {
		c.notified = seq
		if c.OnPage != nil {
			c.OnPage(page)
		}
	}
	c.notifyMu.Unlock()
	if start {
		go c.render(page)
	}
}

// render draws page and then keeps draining the pending slot until it is
// empty. Taking the pending page and clearing it happen under the same lock
// that RequestPage uses, so no request can slip in between.
func (c *Coalescer) render(page int) {
	for {
		Logger.Debug("Rendering page", "page", page)
		if err := c.doc.RenderPage(c.ctx, page); err != nil {
			Logger.Error("Page render failed", "page", page, "error", err)
			if c.OnError != nil {
				c.OnError(page, err)
			}
		}

		c.mu.Lock()
		next := c.state.PendingPage
		if next == 0 {
			c.state.Rendering = false
			c.idle.Broadcast()
			c.mu.Unlock()
			return
		}
		c.state.PendingPage = 0
		c.mu.Unlock()
		page = next
	}
}

// Next requests the page after the current one. It does nothing on the last page.
func (c *Coalescer) Next() bool {
	return c.step(1)
}

// Prev requests the page before the current one. It does nothing on the first page.
func (c *Coalescer) Prev() bool {
	return c.step(-1)
}

func (c *Coalescer) step(delta int) bool {
	c.mu.Lock()
	page := c.state.CurrentPage + delta
	if page < 1 || page > c.doc.TotalPages() {
		c.mu.Unlock()
		return false
	}
	start, seq := c.request(page)
	c.mu.Unlock()
	c.dispatch(page, start, seq)
	return true
}

// State returns a snapshot of the render state
func (c *Coalescer) State() RenderState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until no render is in flight.
func (c *Coalescer) Wait() {
	c.mu.Lock()
	for c.state.Rendering {
		c.idle.Wait()
	}
	c.mu.Unlock()
}
