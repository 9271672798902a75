package listing

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bilgisen/portal/internal/models"
	"github.com/bilgisen/portal/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticLoader(items []models.ContentItem, calls *atomic.Int32) Loader {
	return func(ctx context.Context, p query.Params) (query.Page[models.ContentItem], error) {
		calls.Add(1)
		return query.Run(items, p), nil
	}
}

func TestGoToIgnoresOutOfRangePages(t *testing.T) {
	var calls atomic.Int32
	v := NewView(context.Background(), staticLoader(publishedArticles(10), &calls), query.Params{Status: query.StatusPublished, PageSize: 8})
	defer v.Close()

	require.NoError(t, v.Refresh())

	ok, err := v.GoTo(3)
	assert.False(t, ok)
	assert.NoError(t, err)
	ok, _ = v.GoTo(0)
	assert.False(t, ok)
	assert.EqualValues(t, 1, calls.Load())

	ok, err = v.GoTo(2)
	require.NoError(t, err)
	assert.True(t, ok)

	page, err := v.Current()
	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Len(t, page.Items, 2)
}

func TestSearchIsDebounced(t *testing.T) {
	var calls atomic.Int32
	applied := make(chan query.Page[models.ContentItem], 4)
	v := NewView(context.Background(), staticLoader(publishedArticles(10), &calls), query.Params{Status: query.StatusPublished},
		WithDebounce(30*time.Millisecond),
		OnChange(func(p query.Page[models.ContentItem], err error) { applied <- p }),
	)
	defer v.Close()

	v.Search("a")
	v.Search("ar")
	v.Search("artikel 7")

	select {
	case page := <-applied:
		require.Len(t, page.Items, 1)
		assert.Equal(t, "a7", page.Items[0].ID)
	case <-time.After(time.Second):
		t.Fatal("debounced search never ran")
	}

	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, "artikel 7", v.Params().Search)
}

func TestSlowEarlierResponseDoesNotOverwriteLater(t *testing.T) {
	items := publishedArticles(10)
	release := make(chan struct{})
	var first sync.Once

	load := func(ctx context.Context, p query.Params) (query.Page[models.ContentItem], error) {
		slow := false
		first.Do(func() { slow = true })
		if slow {
			<-release
		}
		return query.Run(items, p), nil
	}

	v := NewView(context.Background(), load, query.Params{Status: query.StatusPublished, Sort: query.SortNewest})
	defer v.Close()

	slowDone := make(chan error, 1)
	go func() { slowDone <- v.Refresh() }()

	// make sure the slow request took its token first
	require.Eventually(t, func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.seq == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, v.SetSort(query.SortOldest))
	close(release)
	assert.ErrorIs(t, <-slowDone, ErrStale)

	page, err := v.Current()
	require.NoError(t, err)
	assert.Equal(t, "a0", page.Items[0].ID, "oldest-first result must survive")
}

func TestCloseAbandonsInFlight(t *testing.T) {
	release := make(chan struct{})
	load := func(ctx context.Context, p query.Params) (query.Page[models.ContentItem], error) {
		<-release
		return query.Run(publishedArticles(3), p), nil
	}
	v := NewView(context.Background(), load, query.Params{})

	done := make(chan error, 1)
	go func() { done <- v.Refresh() }()
	require.Eventually(t, func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.seq == 1
	}, time.Second, time.Millisecond)

	v.Close()
	close(release)
	assert.ErrorIs(t, <-done, ErrStale)

	page, _ := v.Current()
	assert.Empty(t, page.Items)
	assert.ErrorIs(t, v.Refresh(), ErrStale)
}
