// Package textmatch implements ordered "first match wins" pattern lists used
// to recognize the output of command line tools across platforms.
//
// A parser owns an immutable slice of Matchers built once at package
// initialization. Supporting a new output format means appending a Matcher;
// the dispatch loop in the parser does not change.
package textmatch

import "regexp"

// Fields holds the named groups that participated in a match. A group that
// did not participate is absent, which is different from an empty capture.
type Fields map[string]string

// Get returns the captured value for name and whether the group participated.
func (f Fields) Get(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

// Ptr returns the captured value for name, or nil when the group did not
// participate.
func (f Fields) Ptr(name string) *string {
	v, ok := f[name]
	if !ok {
		return nil
	}
	return &v
}

// Matcher recognizes one output format.
type Matcher interface {
	// Name identifies the format, for example "posix" or "windows".
	Name() string
	// TryMatch returns the fields of the first match in text.
	TryMatch(text string) (Fields, bool)
	// TryMatchAll returns the fields of every non-overlapping match in text.
	TryMatchAll(text string) []Fields
}

// Regexp is a Matcher backed by a regular expression with named groups.
type Regexp struct {
	name string
	re   *regexp.Regexp
}

// MustRegexp compiles pattern into a named Matcher and panics on error.
// It is meant for package-level pattern tables.
func MustRegexp(name, pattern string) *Regexp {
	return &Regexp{name: name, re: regexp.MustCompile(pattern)}
}

// Name implements Matcher.
func (m *Regexp) Name() string {
	return m.name
}

// TryMatch implements Matcher.
func (m *Regexp) TryMatch(text string) (Fields, bool) {
	loc := m.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false
	}
	return m.fields(text, loc), true
}

// TryMatchAll implements Matcher.
func (m *Regexp) TryMatchAll(text string) []Fields {
	locs := m.re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Fields, 0, len(locs))
	for _, loc := range locs {
		out = append(out, m.fields(text, loc))
	}
	return out
}

func (m *Regexp) fields(text string, loc []int) Fields {
	f := make(Fields)
	for i, name := range m.re.SubexpNames() {
		if name == "" || loc[2*i] < 0 {
			continue
		}
		f[name] = text[loc[2*i]:loc[2*i+1]]
	}
	return f
}

// List is an ordered set of matchers tried in priority order.
type List []Matcher

// First returns the fields from the first matcher that matches text.
func (l List) First(text string) (Fields, Matcher, bool) {
	for _, m := range l {
		if f, ok := m.TryMatch(text); ok {
			return f, m, true
		}
	}
	return nil, nil, false
}

// FirstAll returns every match of the first matcher with at least one match.
func (l List) FirstAll(text string) ([]Fields, Matcher) {
	for _, m := range l {
		if all := m.TryMatchAll(text); len(all) > 0 {
			return all, m
		}
	}
	return nil, nil
}

// Any reports whether any matcher matches text.
func (l List) Any(text string) bool {
	_, _, ok := l.First(text)
	return ok
}
