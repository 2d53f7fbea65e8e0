// Package portset parses compact integer range lists such as
// "21,80,1000-1010" into sets of integers, typically TCP ports.
package portset

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/anstrom/netdiag/internal/errors"
)

// Port bounds accepted by ParsePorts.
const (
	MinPort = 1
	MaxPort = 65535
)

// Set is an unordered collection of unique integers.
type Set map[int]struct{}

// Of builds a Set from values.
func Of(values ...int) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether v is in the set.
func (s Set) Contains(v int) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []int {
	return slices.Sorted(maps.Keys(s))
}

// String returns the members in ascending order, comma separated.
func (s Set) String() string {
	sorted := s.Sorted()
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// span is an inclusive range; a bare integer is a span of one.
type span struct {
	low, high int
}

// Parse reads a comma separated list of integers and inclusive low-high
// ranges. Whitespace around tokens and range ends is ignored and range ends
// may be given in either order.
//
// Tokens that are neither form are invalid. In strict mode any invalid
// token fails the call with a RangeError listing all of them; otherwise
// they are dropped.
func Parse(spec string, strict bool) (Set, error) {
	spans, invalid := tokenize(spec)
	if strict && len(invalid) > 0 {
		return nil, errors.NewRangeError(spec, invalid)
	}

	set := make(Set)
	for _, sp := range spans {
		for v := sp.low; v <= sp.high; v++ {
			set[v] = struct{}{}
		}
	}
	return set, nil
}

// ParsePorts strictly parses spec and checks that every value is a valid
// TCP port. The result is sorted ascending.
func ParsePorts(spec string) ([]int, error) {
	spans, invalid := tokenize(spec)
	for _, sp := range spans {
		if sp.low < MinPort || sp.high > MaxPort {
			invalid = append(invalid, sp.String())
		}
	}
	if len(invalid) > 0 {
		return nil, errors.NewRangeError(spec, invalid)
	}

	set := make(Set)
	for _, sp := range spans {
		for v := sp.low; v <= sp.high; v++ {
			set[v] = struct{}{}
		}
	}
	return set.Sorted(), nil
}

func (sp span) String() string {
	if sp.low == sp.high {
		return strconv.Itoa(sp.low)
	}
	return strconv.Itoa(sp.low) + "-" + strconv.Itoa(sp.high)
}

// tokenize splits spec into valid spans and the invalid tokens, the latter
// in input order without duplicates.
func tokenize(spec string) ([]span, []string) {
	var (
		spans   []span
		invalid []string
		seen    = make(map[string]bool)
	)

	for _, raw := range strings.Split(spec, ",") {
		token := strings.TrimSpace(raw)

		if v, err := strconv.Atoi(token); err == nil {
			spans = append(spans, span{v, v})
			continue
		}

		if sp, ok := parseRange(token); ok {
			spans = append(spans, sp)
			continue
		}

		if !seen[token] {
			seen[token] = true
			invalid = append(invalid, token)
		}
	}
	return spans, invalid
}

// parseRange accepts two or more dash separated integers and spans from the
// smallest to the largest.
func parseRange(token string) (span, bool) {
	parts := strings.Split(token, "-")
	if len(parts) < 2 {
		return span{}, false
	}

	values := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return span{}, false
		}
		values = append(values, v)
	}
	return span{slices.Min(values), slices.Max(values)}, true
}
