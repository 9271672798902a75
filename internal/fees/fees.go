// Package fees serves the agency fee schedule table.
package fees

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Fee is one row of the schedule
type Fee struct {
	Code     string `yaml:"code" json:"code"`
	Service  string `yaml:"service" json:"service"`
	Category string `yaml:"category" json:"category"`
	Amount   int64  `yaml:"amount" json:"amount"`
	Unit     string `yaml:"unit" json:"unit"`
	Legal    string `yaml:"legal_basis" json:"legal_basis,omitempty"`
}

type Schedule struct {
	Currency string `yaml:"currency" json:"currency"`
	Fees     []Fee  `yaml:"items" json:"items"`
}

// Table is a filtered view of the schedule
type Table struct {
	Currency   string   `json:"currency"`
	Categories []string `json:"categories"`
	Rows       []Fee    `json:"rows"`
}

// Load reads the "fees" section of the site content file.
func Load(path string) (Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to read fee schedule: %w", err)
	}
	var doc struct {
		Fees Schedule `yaml:"fees"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Schedule{}, fmt.Errorf("failed to parse fee schedule: %w", err)
	}
	if err := doc.Fees.Validate(); err != nil {
		return Schedule{}, err
	}
	if doc.Fees.Currency == "" {
		doc.Fees.Currency = "IDR"
	}
	return doc.Fees, nil
}

// Validate rejects duplicate codes and negative amounts.
func (s Schedule) Validate() error {
	seen := map[string]bool{}
	for _, f := range s.Fees {
		if f.Code == "" {
			return fmt.Errorf("fee %q has no code", f.Service)
		}
		if seen[f.Code] {
			return fmt.Errorf("duplicate fee code %q", f.Code)
		}
		seen[f.Code] = true
		if f.Amount < 0 {
			return fmt.Errorf("fee %q has a negative amount", f.Code)
		}
	}
	return nil
}

// Table returns the rows of category in schedule order; an empty category returns all rows.
func (s Schedule) Table(category string) Table {
	category = strings.TrimSpace(category)
	rows := lo.Filter(s.Fees, func(f Fee, _ int) bool {
		return category == "" || strings.EqualFold(f.Category, category)
	})
	return Table{
		Currency:   s.Currency,
		Categories: lo.Uniq(lo.Map(s.Fees, func(f Fee, _ int) string { return f.Category })),
		Rows:       rows,
	}
}

func (s Schedule) Lookup(code string) (Fee, bool) {
	return lo.Find(s.Fees, func(f Fee) bool { return f.Code == code })
}
