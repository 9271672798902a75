// Package session holds the transient state of a content create/edit form.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bilgisen/portal/internal/models"
	"github.com/bilgisen/portal/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

type State int

const (
	Idle State = iota
	Open
	Submitting
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	default:
		return "idle"
	}
}

var (
	ErrNotOpen        = errors.New("editing session is not open")
	ErrSubmitInFlight = errors.New("a submit is already in progress")
	// ErrUnpublish is returned when a published item is saved as draft.
	ErrUnpublish = errors.New("published content cannot be reverted to draft")
	// ErrNoChanges is returned when an existing item is saved unchanged in its current status.
	ErrNoChanges = errors.New("nothing to save")
)

// ValidationError lists the fields that failed local validation, keyed by field name
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name, rule := range e.Fields {
		names = append(names, fmt.Sprintf("%s (%s)", name, rule))
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

// Submitter creates or updates content in the repository.
// *repository.Collection[models.ContentItem] satisfies it.
type Submitter interface {
	Create(ctx context.Context, form repository.Form) (*models.ContentItem, error)
	Update(ctx context.Context, id string, form repository.Form) (*models.ContentItem, error)
}

type Option func(*Session)

// RequireKind makes kind mandatory, as the news/events collection needs it.
func RequireKind() Option {
	return func(s *Session) { s.requireKind = true }
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// Session is safe for concurrent use; the dashboard may poll it while a submit runs.
type Session struct {
	mu sync.Mutex

	submitter   Submitter
	requireKind bool

	state     State
	id        string
	draft     Fields
	original  Fields
	lastError string
	saved     *models.ContentItem
	// gen changes on every Open and Cancel so that a response arriving after
	// the form was closed or reopened leaves the state alone.
	gen uint64
}

func New(sub Submitter, opts ...Option) *Session {
	s := &Session{submitter: sub}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts editing existing, or a blank draft when existing is nil.
func (s *Session) Open(existing *models.ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Submitting {
		return ErrSubmitInFlight
	}

	s.id = ""
	if existing != nil {
		s.id = existing.ID
	}
	s.original = fieldsFrom(existing)
	s.draft = s.original
	s.state = Open
	s.lastError = ""
	s.saved = nil
	s.gen++
	return nil
}

// SetField edits the draft; the original snapshot is never touched.
func (s *Session) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Open {
		return s.notEditable()
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if err := s.draft.set(name, value); err != nil {
		return &ValidationError{Fields: map[string]string{name: err.Error()}}
	}
	return nil
}

func (s *Session) HasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.draft.Equal(s.original)
}

// ResetToOriginal discards edits but keeps the session open.
func (s *Session) ResetToOriginal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Open {
		return s.notEditable()
	}
	s.draft = s.original
	s.lastError = ""
	return nil
}

// Cancel closes the session, discarding edits. An in-flight submit still
// reaches the repository but its result no longer changes this session.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Idle
	s.draft = Fields{}
	s.original = Fields{}
	s.id = ""
	s.lastError = ""
	s.gen++
}

// Payload validates the draft and renders the form that Submit would send.
// Draft and publish payloads differ only in the status value.
func (s *Session) Payload(status models.Status) (repository.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload(status)
}

func (s *Session) payload(status models.Status) (repository.Form, error) {
	status, err := models.ParseStatus(string(status))
	if err != nil {
		return repository.Form{}, err
	}
	if s.id != "" && s.original.Status == models.StatusPublished && status == models.StatusDraft {
		return repository.Form{}, ErrUnpublish
	}
	if err := s.validateDraft(); err != nil {
		return repository.Form{}, err
	}
	return repository.Form{Fields: s.draft.form(status)}, nil
}

func (s *Session) validateDraft() error {
	fields := map[string]string{}
	if err := validate.Struct(s.draft); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields[jsonName(fe.Field())] = fe.Tag()
		}
	}
	if s.requireKind && s.draft.Kind == "" {
		fields[FieldKind] = "required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Submit sends the draft with the given status: create when no id is bound,
// update otherwise. On failure the session returns to Open with the draft intact.
func (s *Session) Submit(ctx context.Context, status models.Status) (*models.ContentItem, error) {
	s.mu.Lock()
	if s.state != Open {
		err := s.notEditable()
		s.mu.Unlock()
		return nil, err
	}
	form, err := s.payload(status)
	if err == nil && s.id != "" && s.draft.Equal(s.original) &&
		form.Fields[FieldStatus] == string(s.original.Status) {
		err = ErrNoChanges
	}
	if err != nil {
		s.lastError = err.Error()
		s.mu.Unlock()
		return nil, err
	}
	id, gen := s.id, s.gen
	s.state = Submitting
	s.lastError = ""
	s.mu.Unlock()

	var item *models.ContentItem
	if id == "" {
		item, err = s.submitter.Create(ctx, form)
	} else {
		item, err = s.submitter.Update(ctx, id, form)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		// closed or reopened meanwhile
		return item, err
	}
	if err != nil {
		s.state = Open
		s.lastError = err.Error()
		return nil, err
	}

	s.state = Idle
	s.saved = item
	return item, nil
}

func (s *Session) notEditable() error {
	if s.state == Submitting {
		return ErrSubmitInFlight
	}
	return ErrNotOpen
}

// Snapshot is a read-only copy of the session for rendering
type Snapshot struct {
	State      string              `json:"state"`
	ID         string              `json:"id,omitempty"`
	Draft      Fields              `json:"draft"`
	Original   Fields              `json:"original"`
	HasChanges bool                `json:"has_changes"`
	LastError  string              `json:"last_error,omitempty"`
	Saved      *models.ContentItem `json:"saved,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:      s.state.String(),
		ID:         s.id,
		Draft:      s.draft,
		Original:   s.original,
		HasChanges: !s.draft.Equal(s.original),
		LastError:  s.lastError,
		Saved:      s.saved,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func jsonName(field string) string {
	switch field {
	case "Title":
		return FieldTitle
	case "Kind":
		return FieldKind
	}
	return strings.ToLower(field)
}
