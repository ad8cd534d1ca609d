package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// Wildcard is the filter value meaning "no filter".
const Wildcard = "*"

// Filter is an allow-list, or the wildcard accepting everything.
type Filter struct {
	all    bool
	values []string
}

// AllowAll returns the wildcard filter.
func AllowAll() Filter {
	return Filter{all: true}
}

// ParseFilter reads a comma-separated allow-list. "*" and "" accept everything.
func ParseFilter(input string) Filter {
	values := SplitList(input)
	if len(values) == 0 || slices.Contains(values, Wildcard) {
		return AllowAll()
	}
	return Filter{values: values}
}

// Allows reports whether v passes the filter.
func (f Filter) Allows(v string) bool {
	return f.all || slices.Contains(f.values, v)
}

// IsAll reports whether the filter is the wildcard.
func (f Filter) IsAll() bool {
	return f.all
}

func (f Filter) String() string {
	if f.all {
		return Wildcard
	}
	return strings.Join(f.values, ",")
}

// GlobFilter accepts values matching any of its shell-style patterns.
type GlobFilter struct {
	all      bool
	patterns []string
	globs    []glob.Glob
}

// ParseGlobFilter compiles a comma-separated list of glob patterns.
func ParseGlobFilter(input string) (GlobFilter, error) {
	patterns := SplitList(input)
	if len(patterns) == 0 || slices.Contains(patterns, Wildcard) {
		return GlobFilter{all: true}, nil
	}

	gf := GlobFilter{patterns: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return GlobFilter{}, fmt.Errorf("compiling flavor pattern %q: %w", p, err)
		}
		gf.globs = append(gf.globs, g)
	}
	return gf, nil
}

// Allows reports whether v matches at least one pattern.
func (f GlobFilter) Allows(v string) bool {
	if f.all {
		return true
	}
	for _, g := range f.globs {
		if g.Match(v) {
			return true
		}
	}
	return false
}

func (f GlobFilter) String() string {
	if f.all {
		return Wildcard
	}
	return strings.Join(f.patterns, ",")
}

// Filters holds the user-supplied candidate filters. The zero value of each
// field rejects everything, so build it with NewFilters or set each field.
type Filters struct {
	ImageTypes Filter
	Flavors    GlobFilter
	Envs       Filter
	Tenants    Filter
	Platforms  Filter
}

// NewFilters parses every filter input.
func NewFilters(imageTypes, flavors, envs, tenants, platforms string) (Filters, error) {
	flavorFilter, err := ParseGlobFilter(flavors)
	if err != nil {
		return Filters{}, err
	}
	return Filters{
		ImageTypes: ParseFilter(imageTypes),
		Flavors:    flavorFilter,
		Envs:       ParseFilter(envs),
		Tenants:    ParseFilter(tenants),
		Platforms:  ParseFilter(platforms),
	}, nil
}

// Allows reports whether c passes every filter.
func (f Filters) Allows(c Candidate) bool {
	return f.ImageTypes.Allows(string(c.Type)) &&
		f.Flavors.Allows(c.Flavor) &&
		f.Envs.Allows(c.Env) &&
		f.Tenants.Allows(c.Tenant) &&
		f.Platforms.Allows(c.Platform)
}

// SplitList splits a comma-separated input, dropping blanks.
func SplitList(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
