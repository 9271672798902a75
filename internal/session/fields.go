package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/bilgisen/portal/internal/models"
)

// Field names accepted by SetField, matching the repository form fields
const (
	FieldTitle       = "title"
	FieldBody        = "body"
	FieldCoverImage  = "cover_image"
	FieldPublishedAt = "published_at"
	FieldKind        = "kind"
	FieldStatus      = "status"
)

const dateLayout = "2006-01-02"

// Fields are the editable values of a content form
type Fields struct {
	Title       string        `json:"title" validate:"notblank"`
	Body        string        `json:"body"`
	CoverImage  string        `json:"cover_image,omitempty"`
	PublishedAt time.Time     `json:"published_at"`
	Kind        models.Kind   `json:"kind,omitempty" validate:"omitempty,oneof=news event"`
	Status      models.Status `json:"status"`
}

func fieldsFrom(item *models.ContentItem) Fields {
	if item == nil {
		return Fields{Status: models.StatusDraft}
	}
	status := item.Status
	if status == "" {
		status = models.StatusDraft
	}
	return Fields{
		Title:       item.Title,
		Body:        item.Body,
		CoverImage:  item.CoverImage,
		PublishedAt: item.PublishedAt,
		Kind:        item.Kind,
		Status:      status,
	}
}

// Equal compares every field; timestamps compare by instant.
func (f Fields) Equal(o Fields) bool {
	return f.Title == o.Title &&
		f.Body == o.Body &&
		f.CoverImage == o.CoverImage &&
		f.PublishedAt.Equal(o.PublishedAt) &&
		f.Kind == o.Kind &&
		f.Status == o.Status
}

func (f *Fields) set(name, value string) error {
	switch name {
	case FieldTitle:
		f.Title = value
	case FieldBody:
		f.Body = value
	case FieldCoverImage:
		f.CoverImage = strings.TrimSpace(value)
	case FieldPublishedAt:
		t, err := parseDate(value)
		if err != nil {
			return err
		}
		f.PublishedAt = t
	case FieldKind:
		k, err := models.ParseKind(value)
		if err != nil {
			return err
		}
		f.Kind = k
	case FieldStatus:
		// status is chosen by the submit action, never edited as a field
		return fmt.Errorf("field %q is set on submit", name)
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return t, nil
}

// form renders the fields as repository multipart values.
func (f Fields) form(status models.Status) map[string]string {
	out := map[string]string{
		FieldTitle:      f.Title,
		FieldBody:       f.Body,
		FieldCoverImage: f.CoverImage,
		FieldStatus:     string(status),
	}
	if !f.PublishedAt.IsZero() {
		out[FieldPublishedAt] = f.PublishedAt.Format(dateLayout)
	}
	if f.Kind != "" {
		out[FieldKind] = string(f.Kind)
	}
	return out
}
