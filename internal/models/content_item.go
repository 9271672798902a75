package models

import (
	"fmt"
	"strings"
	"time"
)

// Status controls public visibility of a ContentItem
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Kind partitions the news collection into news and event tabs
type Kind string

const (
	KindNews  Kind = "news"
	KindEvent Kind = "event"
)

// ContentItem is the shared shape of articles and news/event posts
type ContentItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	CoverImage  string    `json:"cover_image,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Status      Status    `json:"status"`
	ViewCount   int       `json:"view_count"`
	Kind        Kind      `json:"kind,omitempty"`
}

// IsPublished reports whether the item is visible on public listings
func (c ContentItem) IsPublished() bool {
	return c.Status == StatusPublished
}

// ParseStatus maps a form or query value to a Status. Empty means draft.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusDraft:
		return StatusDraft, nil
	case StatusPublished, "publish":
		return StatusPublished, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ParseKind maps a form or query value to a Kind. Empty is allowed for articles.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", KindNews, KindEvent:
		return k, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}
