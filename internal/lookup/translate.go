package lookup

import (
	"regexp"
	"strings"
)

// Rule renames every key matching Pattern to Key. Pattern is a literal
// string in which * matches any run of characters.
type Rule struct {
	Pattern string
	Key     string
}

type compiledRule struct {
	re  *regexp.Regexp
	key string
}

// WildcardExpr converts a wildcard pattern to a regular expression: the
// pattern is quoted and each * becomes .*.
func WildcardExpr(pattern string) string {
	return strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*")
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile("^(?:" + WildcardExpr(r.Pattern) + ")$")
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledRule{re: re, key: r.Key})
	}
	return compiled, nil
}

// TranslateKey returns the key of the first rule whose pattern matches the
// whole of key.
func TranslateKey(key string, rules []Rule) (string, bool, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return "", false, err
	}
	name, ok := translateKey(key, compiled)
	return name, ok, nil
}

func translateKey(key string, rules []compiledRule) (string, bool) {
	for _, r := range rules {
		if r.re.MatchString(key) {
			return r.key, true
		}
	}
	return "", false
}

// MergeValues combines two values into one, building a []any when both are
// set. Slices are spliced rather than nested. A nil value yields the other.
func MergeValues(first, second any) any {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return append(asList(first), asList(second)...)
}

func asList(v any) []any {
	switch list := v.(type) {
	case []any:
		return append([]any(nil), list...)
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

// Translate renames the keys of fields using wildcard rules. Values whose
// keys translate to the same name are merged with MergeValues. Keys no rule
// matches are kept unchanged.
func Translate(fields *Fields, rules []Rule) (*Fields, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}

	out := NewFields()
	for _, key := range fields.Keys() {
		value, _ := fields.Get(key)

		name, ok := translateKey(key, compiled)
		if !ok {
			name = key
		}

		existing, _ := out.Get(name)
		out.Set(name, MergeValues(existing, value))
	}
	return out, nil
}
