package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, s)

	s, err = ParseStatus("Published")
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, s)

	s, err = ParseStatus("publish")
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, s)

	_, err = ParseStatus("archived")
	assert.Error(t, err)
}

func TestParseKindAndCategory(t *testing.T) {
	k, err := ParseKind("EVENT")
	require.NoError(t, err)
	assert.Equal(t, KindEvent, k)

	_, err = ParseKind("podcast")
	assert.Error(t, err)

	c, err := ParseCategory("external")
	require.NoError(t, err)
	assert.Equal(t, CategoryExternal, c)

	_, err = ParseCategory("partner")
	assert.Error(t, err)
}

func TestContentItemJSONFieldNames(t *testing.T) {
	// The repository speaks snake_case; make sure the cover image and counters keep their names.
	item := ContentItem{
		ID:         "7",
		Title:      "Tarif baru",
		CoverImage: "https://cdn.example.com/cover.jpg",
		Status:     StatusPublished,
		ViewCount:  12,
		Kind:       KindNews,
	}

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "https://cdn.example.com/cover.jpg", result["cover_image"])
	assert.Equal(t, "published", result["status"])
	assert.EqualValues(t, 12, result["view_count"])
	assert.Equal(t, "news", result["kind"])
	assert.True(t, item.IsPublished())
}
