package permission

import (
	"errors"
	"strings"
)

// ErrInvalidRequirement is returned by ParseRequirement for empty names or terms.
var ErrInvalidRequirement = errors.New("permission: invalid requirement expression")

// Term is one clause of a requirement. A single name must be held; with several
// names, holding any one of them is enough.
type Term []string

// Requirement is an ordered AND of terms.
type Requirement []Term

// Name returns a term that requires name.
func Name(name string) Term {
	return Term{name}
}

// AnyOf returns a term satisfied by any one of names.
func AnyOf(names ...string) Term {
	return Term(names)
}

// Require builds a requirement where every name is mandatory.
func Require(names ...string) Requirement {
	req := make(Requirement, 0, len(names))
	for _, n := range names {
		req = append(req, Name(n))
	}
	return req
}

// Empty reports whether the requirement places no constraint.
func (r Requirement) Empty() bool {
	return len(r) == 0
}

// Names returns every name referenced by the requirement, in order of first use.
func (r Requirement) Names() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, term := range r {
		for _, n := range term {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// String renders the requirement in the form accepted by ParseRequirement.
func (r Requirement) String() string {
	terms := make([]string, len(r))
	for i, term := range r {
		terms[i] = strings.Join(term, "|")
	}
	return strings.Join(terms, ",")
}

// ParseRequirement parses "a, b|c" into {a} AND {b OR c}. Whitespace around names is
// ignored. An empty expression yields an empty requirement.
func ParseRequirement(expr string) (Requirement, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	var req Requirement
	for _, rawTerm := range strings.Split(expr, ",") {
		var term Term
		for _, rawName := range strings.Split(rawTerm, "|") {
			name := strings.TrimSpace(rawName)
			if name == "" {
				return nil, ErrInvalidRequirement
			}
			term = append(term, name)
		}
		req = append(req, term)
	}
	return req, nil
}

// MustParseRequirement is like ParseRequirement but panics on error. It is meant for
// package-level route declarations.
func MustParseRequirement(expr string) Requirement {
	req, err := ParseRequirement(expr)
	if err != nil {
		panic(err)
	}
	return req
}
