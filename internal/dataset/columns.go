package dataset

import (
	"strings"

	"golang.org/x/text/cases"
)

// Name fragments used to discover the experience and salary columns when
// they are not configured explicitly.
const (
	ExperienceHint = "опыт"
	SalaryHint     = "ЗП"
)

// FindColumn returns the first column, in column order, whose name contains
// needle ignoring case. The boolean is false if no column matches.
func (d *Dataset) FindColumn(needle string) (string, bool) {
	fold := cases.Fold()
	want := fold.String(needle)
	for _, name := range d.names {
		if strings.Contains(fold.String(name), want) {
			return name, true
		}
	}
	return "", false
}

// ColumnSet names the semantically special source columns.
// Empty fields fall back to FindColumn discovery.
type ColumnSet struct {
	// Experience is the free-text work experience column.
	Experience string `yaml:"experience,omitempty"`

	// Salary is the free-text salary column.
	Salary string `yaml:"salary,omitempty"`
}

// ExperienceColumn resolves the experience column for d.
func (s ColumnSet) ExperienceColumn(d *Dataset) (string, bool) {
	return resolve(d, s.Experience, ExperienceHint)
}

// SalaryColumn resolves the salary column for d.
func (s ColumnSet) SalaryColumn(d *Dataset) (string, bool) {
	return resolve(d, s.Salary, SalaryHint)
}

// resolve returns the explicit name when one is set, reporting whether d has
// it; discovery by hint runs only when no explicit name is given.
func resolve(d *Dataset, explicit, hint string) (string, bool) {
	if explicit != "" {
		return explicit, d.Has(explicit)
	}
	return d.FindColumn(hint)
}
