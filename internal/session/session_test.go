package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bilgisen/portal/internal/models"
	"github.com/bilgisen/portal/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	id   string
	form repository.Form
}

type mockSubmitter struct {
	mu      sync.Mutex
	creates []call
	updates []call
	err     error
	// block, when set, holds the submit until closed
	block chan struct{}
}

func (m *mockSubmitter) Create(ctx context.Context, form repository.Form) (*models.ContentItem, error) {
	return m.record(&m.creates, "", form)
}

func (m *mockSubmitter) Update(ctx context.Context, id string, form repository.Form) (*models.ContentItem, error) {
	return m.record(&m.updates, id, form)
}

func (m *mockSubmitter) record(into *[]call, id string, form repository.Form) (*models.ContentItem, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	*into = append(*into, call{id: id, form: form})
	if m.err != nil {
		return nil, m.err
	}
	if id == "" {
		id = "new-1"
	}
	return &models.ContentItem{
		ID:     id,
		Title:  form.Fields[FieldTitle],
		Status: models.Status(form.Fields[FieldStatus]),
	}, nil
}

func draftItem() *models.ContentItem {
	return &models.ContentItem{
		ID:          "7",
		Title:       "A",
		Body:        "<p>isi</p>",
		PublishedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Status:      models.StatusDraft,
	}
}

func TestEditAndResetScenario(t *testing.T) {
	s := New(&mockSubmitter{})
	require.NoError(t, s.Open(draftItem()))
	assert.False(t, s.HasChanges())

	require.NoError(t, s.SetField("title", "B"))
	assert.True(t, s.HasChanges())

	require.NoError(t, s.ResetToOriginal())
	assert.Equal(t, "A", s.Snapshot().Draft.Title)
	assert.False(t, s.HasChanges())
}

func TestResetRestoresOriginalAfterAnyEdits(t *testing.T) {
	s := New(&mockSubmitter{}, RequireKind())
	item := draftItem()
	item.Kind = models.KindNews
	require.NoError(t, s.Open(item))
	original := s.Snapshot().Original

	edits := [][2]string{
		{"title", "x"}, {"body", "<b>y</b>"}, {"cover_image", "https://cdn/x.png"},
		{"published_at", "2025-01-31"}, {"kind", "event"}, {"title", "A"},
	}
	for _, e := range edits {
		require.NoError(t, s.SetField(e[0], e[1]))
	}
	assert.True(t, s.HasChanges())

	require.NoError(t, s.ResetToOriginal())
	snap := s.Snapshot()
	assert.True(t, snap.Draft.Equal(original))
	assert.True(t, snap.Original.Equal(original))
}

func TestSetFieldRejectsUnknownAndStatus(t *testing.T) {
	s := New(&mockSubmitter{})
	assert.ErrorIs(t, s.SetField("title", "x"), ErrNotOpen)

	require.NoError(t, s.Open(nil))
	assert.Error(t, s.SetField("author", "x"))
	var verr *ValidationError
	require.ErrorAs(t, s.SetField("status", "published"), &verr)
	assert.Contains(t, verr.Fields, "status")
	assert.Error(t, s.SetField("published_at", "31/01/2025"))
	assert.Error(t, s.SetField("kind", "podcast"))
	assert.NoError(t, s.SetField("published_at", "2025-01-31T08:00:00Z"))
}

func TestDraftAndPublishPayloadsDifferOnlyInStatus(t *testing.T) {
	s := New(&mockSubmitter{})
	require.NoError(t, s.Open(draftItem()))
	require.NoError(t, s.SetField("cover_image", "https://cdn/a.jpg"))

	draft, err := s.Payload(models.StatusDraft)
	require.NoError(t, err)
	published, err := s.Payload("publish")
	require.NoError(t, err)

	assert.Equal(t, "draft", draft.Fields[FieldStatus])
	assert.Equal(t, "published", published.Fields[FieldStatus])

	delete(draft.Fields, FieldStatus)
	delete(published.Fields, FieldStatus)
	assert.Equal(t, draft.Fields, published.Fields)
	assert.Equal(t, "2024-05-02", draft.Fields[FieldPublishedAt])
}

func TestSubmitCreateVsUpdate(t *testing.T) {
	sub := &mockSubmitter{}

	create := New(sub)
	require.NoError(t, create.Open(nil))
	require.NoError(t, create.SetField("title", "Baru"))
	item, err := create.Submit(context.Background(), models.StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, "new-1", item.ID)
	assert.Equal(t, Idle, create.State())

	update := New(sub)
	require.NoError(t, update.Open(draftItem()))
	item, err = update.Submit(context.Background(), models.StatusPublished)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, item.Status)

	require.Len(t, sub.creates, 1)
	require.Len(t, sub.updates, 1)
	assert.Equal(t, "7", sub.updates[0].id)
}

func TestSubmitRequiresTitle(t *testing.T) {
	sub := &mockSubmitter{}
	s := New(sub, RequireKind())
	require.NoError(t, s.Open(nil))
	require.NoError(t, s.SetField("title", "   "))

	_, err := s.Submit(context.Background(), models.StatusDraft)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, FieldTitle)
	assert.Contains(t, verr.Fields, FieldKind)

	assert.Equal(t, Open, s.State())
	assert.Empty(t, sub.creates)
	assert.NotEmpty(t, s.Snapshot().LastError)
}

func TestFailedSubmitKeepsDraft(t *testing.T) {
	sub := &mockSubmitter{err: &repository.ValidationError{Status: 422, Message: "Judul sudah dipakai"}}
	s := New(sub)
	require.NoError(t, s.Open(draftItem()))
	require.NoError(t, s.SetField("title", "Edited"))

	_, err := s.Submit(context.Background(), models.StatusPublished)
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "open", snap.State)
	assert.Equal(t, "Edited", snap.Draft.Title)
	assert.Equal(t, "Judul sudah dipakai", snap.LastError)
	assert.True(t, snap.HasChanges)
}

func TestPublishedCannotBeSavedAsDraft(t *testing.T) {
	s := New(&mockSubmitter{})
	item := draftItem()
	item.Status = models.StatusPublished
	require.NoError(t, s.Open(item))

	_, err := s.Submit(context.Background(), models.StatusDraft)
	assert.ErrorIs(t, err, ErrUnpublish)

	_, err = s.Submit(context.Background(), models.StatusPublished)
	assert.ErrorIs(t, err, ErrNoChanges)

	require.NoError(t, s.SetField("title", "Edited"))
	_, err = s.Submit(context.Background(), models.StatusPublished)
	assert.NoError(t, err)
}

func TestUnchangedSubmitRejected(t *testing.T) {
	sub := &mockSubmitter{}
	s := New(sub)
	require.NoError(t, s.Open(draftItem()))

	_, err := s.Submit(context.Background(), models.StatusDraft)
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Equal(t, Open, s.State())
	assert.Equal(t, ErrNoChanges.Error(), s.Snapshot().LastError)
	assert.Empty(t, sub.updates)

	// a status change alone is a real save
	item, err := s.Submit(context.Background(), "publish")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, item.Status)
	require.Len(t, sub.updates, 1)

	// new items are always saved
	create := New(sub)
	require.NoError(t, create.Open(nil))
	require.NoError(t, create.SetField("title", "Baru"))
	_, err = create.Submit(context.Background(), models.StatusDraft)
	assert.NoError(t, err)
}

func TestConcurrentSubmitRejected(t *testing.T) {
	sub := &mockSubmitter{block: make(chan struct{})}
	s := New(sub)
	require.NoError(t, s.Open(draftItem()))
	require.NoError(t, s.SetField("title", "Edited"))

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), models.StatusDraft)
		done <- err
	}()

	require.Eventually(t, func() bool { return s.State() == Submitting }, time.Second, 5*time.Millisecond)

	_, err := s.Submit(context.Background(), models.StatusPublished)
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.ErrorIs(t, s.SetField("title", "x"), ErrSubmitInFlight)

	close(sub.block)
	require.NoError(t, <-done)
	assert.Len(t, sub.updates, 1)
}

func TestCancelAbandonsInFlightResult(t *testing.T) {
	sub := &mockSubmitter{block: make(chan struct{}), err: errors.New("boom")}
	s := New(sub)
	require.NoError(t, s.Open(draftItem()))
	require.NoError(t, s.SetField("title", "Edited"))

	done := make(chan struct{})
	go func() {
		_, _ = s.Submit(context.Background(), models.StatusDraft)
		close(done)
	}()
	require.Eventually(t, func() bool { return s.State() == Submitting }, time.Second, 5*time.Millisecond)

	s.Cancel()
	close(sub.block)
	<-done

	snap := s.Snapshot()
	assert.Equal(t, "idle", snap.State)
	assert.Empty(t, snap.LastError)
}

func TestStore(t *testing.T) {
	store := NewStore(time.Minute)
	s := New(&mockSubmitter{})
	require.NoError(t, s.Open(nil))

	id := store.Put(Entry{Collection: "articles", Session: s})
	got, ok := store.Get(id)
	require.True(t, ok)
	assert.Same(t, s, got.Session)
	assert.Equal(t, 1, store.Len())

	store.Delete(id)
	_, ok = store.Get(id)
	assert.False(t, ok)
	assert.Equal(t, Idle, s.State())
}
