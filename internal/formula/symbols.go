package formula

import "sort"

// Symbols is a family's variable names in canonical (byte-wise
// lexicographic) order. Derived solvers take their arguments in this order,
// whatever order callers name them in.
type Symbols []string

func NewSymbols(names ...string) Symbols {
	seen := make(map[string]struct{}, len(names))
	out := make(Symbols, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s Symbols) Index(name string) int {
	i := sort.SearchStrings(s, name)
	if i < len(s) && s[i] == name {
		return i
	}
	return -1
}

func (s Symbols) Contains(name string) bool { return s.Index(name) >= 0 }

// Without returns a copy of s minus name.
func (s Symbols) Without(name string) Symbols {
	out := make(Symbols, 0, len(s))
	for _, n := range s {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
