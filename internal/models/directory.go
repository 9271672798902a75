package models

import (
	"fmt"
	"strings"
)

// FaqEntry is a single question/answer pair grouped by topic at query time
type FaqEntry struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Order     int    `json:"order"`
	IsActive  bool   `json:"is_active"`
	ViewCount int    `json:"view_count"`
	// QuestionID points at the submitted user question this entry answers, if any.
	QuestionID *string `json:"question_id,omitempty"`
}

type Category string

const (
	CategoryInternal Category = "internal"
	CategoryExternal Category = "external"
	CategoryOther    Category = "other"
)

// ApplicationEntry is a directory record linking to an agency application
type ApplicationEntry struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	ImagePath string   `json:"image_path,omitempty"`
	Category  Category `json:"category"`
}

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CategoryInternal, CategoryExternal, CategoryOther:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}
