package listing

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// ViewEntry is a stored view together with the collection it lists
type ViewEntry struct {
	Collection string
	View       *View
}

// Views keeps listing views open for clients that page and search through the
// server. A view is closed when it is deleted or left idle for ttl.
type Views struct {
	items *gocache.Cache
}

func NewViews(ttl time.Duration) *Views {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	items := gocache.New(ttl, ttl/2)
	items.OnEvicted(func(_ string, v any) {
		if e, ok := v.(ViewEntry); ok {
			e.View.Close()
		}
	})
	return &Views{items: items}
}

// Put stores the entry and returns its handle.
func (vs *Views) Put(e ViewEntry) string {
	id := uuid.NewString()
	vs.items.SetDefault(id, e)
	return id
}

// Get returns the entry and extends its lifetime.
func (vs *Views) Get(id string) (ViewEntry, bool) {
	v, ok := vs.items.Get(id)
	if !ok {
		return ViewEntry{}, false
	}
	e := v.(ViewEntry)
	vs.items.SetDefault(id, e)
	return e, true
}

// Delete closes the view and forgets it.
func (vs *Views) Delete(id string) {
	vs.items.Delete(id)
}

func (vs *Views) Len() int {
	return vs.items.ItemCount()
}
