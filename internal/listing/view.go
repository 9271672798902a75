package listing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bilgisen/portal/internal/models"
	"github.com/bilgisen/portal/internal/query"
)

// ErrStale is returned by Refresh when a newer request superseded this one
// or the view was closed while it ran.
var ErrStale = errors.New("listing response superseded")

const DefaultDebounce = 500 * time.Millisecond

// Loader produces a page for the given params.
type Loader func(ctx context.Context, p query.Params) (query.Page[models.ContentItem], error)

// View is the state of one listing screen: filter params, the page on display
// and the last error. Only the latest request may change it.
type View struct {
	mu       sync.Mutex
	load     Loader
	params   query.Params
	page     query.Page[models.ContentItem]
	err      error
	seq      uint64
	debounce time.Duration
	timer    *time.Timer
	onChange func(query.Page[models.ContentItem], error)

	ctx    context.Context
	cancel context.CancelFunc
}

type ViewOption func(*View)

func WithDebounce(d time.Duration) ViewOption {
	return func(v *View) { v.debounce = d }
}

// OnChange registers a callback run after every applied response.
func OnChange(fn func(query.Page[models.ContentItem], error)) ViewOption {
	return func(v *View) { v.onChange = fn }
}

func NewView(ctx context.Context, load Loader, initial query.Params, opts ...ViewOption) *View {
	if initial.Page < 1 {
		initial.Page = 1
	}
	if initial.PageSize <= 0 {
		initial.PageSize = query.DefaultPageSize
	}
	if initial.Sort == "" {
		initial.Sort = query.SortNewest
	}
	ctx, cancel := context.WithCancel(ctx)
	v := &View{
		load:     load,
		params:   initial,
		debounce: DefaultDebounce,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Refresh loads the page for the current params. A response that arrives after
// a newer Refresh started is dropped and ErrStale returned.
func (v *View) Refresh() error {
	v.mu.Lock()
	if v.ctx.Err() != nil {
		v.mu.Unlock()
		return ErrStale
	}
	v.seq++
	token, params := v.seq, v.params
	v.mu.Unlock()

	page, err := v.load(v.ctx, params)

	v.mu.Lock()
	if token != v.seq || v.ctx.Err() != nil {
		v.mu.Unlock()
		return ErrStale
	}
	if err == nil {
		v.page = page
		v.params.Page = page.CurrentPage
	}
	v.err = err
	onChange := v.onChange
	v.mu.Unlock()

	if onChange != nil {
		onChange(page, err)
	}
	return err
}

// Search records the term and refreshes once input has been quiet for the
// debounce interval. Each call restarts the interval.
func (v *View) Search(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.ctx.Err() != nil {
		return
	}
	v.params.Search = term
	v.params.Page = 1
	if v.timer != nil {
		v.timer.Stop()
	}
	v.timer = time.AfterFunc(v.debounce, func() { _ = v.Refresh() })
}

// SetSort changes the order and returns to the first page.
func (v *View) SetSort(key query.SortKey) error {
	v.mu.Lock()
	v.params.Sort = key
	v.params.Page = 1
	v.mu.Unlock()
	return v.Refresh()
}

// GoTo moves to page. Pages outside the current listing are ignored and
// GoTo reports false without issuing a request.
func (v *View) GoTo(page int) (bool, error) {
	v.mu.Lock()
	if !query.InRange(page, v.page.TotalItems, v.params.PageSize) {
		v.mu.Unlock()
		return false, nil
	}
	v.params.Page = page
	v.mu.Unlock()
	return true, v.Refresh()
}

// Current returns the page on display and the error of the last applied response.
func (v *View) Current() (query.Page[models.ContentItem], error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page, v.err
}

func (v *View) Params() query.Params {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.params
}

// Close abandons pending and in-flight requests.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.timer != nil {
		v.timer.Stop()
	}
	v.cancel()
}
