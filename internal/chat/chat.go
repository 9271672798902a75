// Package chat answers the site chat widget with keyword rules and FAQ lookups.
package chat

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/bilgisen/portal/internal/models"
	"github.com/bilgisen/portal/internal/utils"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Rule answers any message containing one of its keywords
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

type Script struct {
	Greeting string `yaml:"greeting"`
	Fallback string `yaml:"fallback"`
	Rules    []Rule `yaml:"rules"`
	// MaxSuggestions caps FAQ suggestions per reply.
	MaxSuggestions int `yaml:"max_suggestions"`
}

// LoadScript reads the "chat" section of the site content file.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read chat script: %w", err)
	}
	var doc struct {
		Chat Script `yaml:"chat"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Script{}, fmt.Errorf("failed to parse chat script: %w", err)
	}
	return doc.Chat, nil
}

// FAQSource supplies FAQ entries for suggestion lookups.
type FAQSource interface {
	FAQEntries(ctx context.Context, activeOnly bool) ([]models.FaqEntry, error)
}

type Source string

const (
	SourceGreeting Source = "greeting"
	SourceRule     Source = "rule"
	SourceFAQ      Source = "faq"
	SourceFallback Source = "fallback"
)

type Reply struct {
	Text        string            `json:"text"`
	Source      Source            `json:"source"`
	Suggestions []models.FaqEntry `json:"suggestions,omitempty"`
}

type Responder struct {
	script Script
	faq    FAQSource
}

func NewResponder(script Script, faq FAQSource) *Responder {
	if script.MaxSuggestions <= 0 {
		script.MaxSuggestions = 3
	}
	if script.Greeting == "" {
		script.Greeting = "Halo! Ada yang bisa kami bantu?"
	}
	if script.Fallback == "" {
		script.Fallback = "Maaf, kami belum menemukan jawaban. Silakan hubungi layanan informasi kami."
	}
	return &Responder{script: script, faq: faq}
}

// Reply picks the first matching rule, then FAQ suggestions, then the fallback.
// A failing FAQ lookup degrades to the fallback reply.
func (r *Responder) Reply(ctx context.Context, message string) Reply {
	text := strings.ToLower(utils.StripTags(message))
	if text == "" {
		return Reply{Text: r.script.Greeting, Source: SourceGreeting}
	}

	for _, rule := range r.script.Rules {
		if lo.SomeBy(rule.Keywords, func(k string) bool {
			k = strings.ToLower(strings.TrimSpace(k))
			return k != "" && strings.Contains(text, k)
		}) {
			return Reply{Text: rule.Reply, Source: SourceRule}
		}
	}

	if r.faq != nil {
		entries, err := r.faq.FAQEntries(ctx, true)
		if err == nil {
			if best := suggest(entries, text, r.script.MaxSuggestions); len(best) > 0 {
				return Reply{Text: best[0].Answer, Source: SourceFAQ, Suggestions: best}
			}
		}
	}

	return Reply{Text: r.script.Fallback, Source: SourceFallback}
}

// suggest ranks active entries by how many message words appear in the question.
// Words shorter than three letters are ignored.
func suggest(entries []models.FaqEntry, text string, limit int) []models.FaqEntry {
	words := lo.Uniq(lo.Filter(strings.Fields(text), func(w string, _ int) bool {
		return len([]rune(w)) >= 3
	}))
	if len(words) == 0 {
		return nil
	}

	type scored struct {
		entry models.FaqEntry
		score int
	}
	var ranked []scored
	for _, e := range entries {
		if !e.IsActive {
			continue
		}
		question := strings.ToLower(utils.StripTags(e.Question))
		score := lo.CountBy(words, func(w string) bool { return strings.Contains(question, w) })
		if score > 0 {
			ranked = append(ranked, scored{entry: e, score: score})
		}
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		return cmp.Or(
			cmp.Compare(b.score, a.score),
			cmp.Compare(a.entry.Order, b.entry.Order),
		)
	})

	out := lo.Map(ranked, func(s scored, _ int) models.FaqEntry { return s.entry })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
