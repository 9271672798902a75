package listing

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bilgisen/portal/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewsDeleteClosesView(t *testing.T) {
	var calls atomic.Int32
	views := NewViews(time.Minute)
	v := NewView(context.Background(), staticLoader(publishedArticles(3), &calls), query.Params{Status: query.StatusPublished})

	id := views.Put(ViewEntry{Collection: "articles", View: v})
	got, ok := views.Get(id)
	require.True(t, ok)
	assert.Same(t, v, got.View)
	assert.Equal(t, 1, views.Len())

	views.Delete(id)
	_, ok = views.Get(id)
	assert.False(t, ok)
	assert.ErrorIs(t, v.Refresh(), ErrStale)
	assert.Zero(t, calls.Load())
}

func TestViewsExpireIdleViews(t *testing.T) {
	var calls atomic.Int32
	views := NewViews(20 * time.Millisecond)
	v := NewView(context.Background(), staticLoader(publishedArticles(3), &calls), query.Params{Status: query.StatusPublished})
	views.Put(ViewEntry{Collection: "articles", View: v})

	require.Eventually(t, func() bool {
		return errors.Is(v.Refresh(), ErrStale)
	}, time.Second, 10*time.Millisecond)
	assert.Zero(t, views.Len())
}
