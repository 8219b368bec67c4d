package match

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/theory/jsonpath"
	"github.com/theory/jsonpath/spec"
)

// Selector decides whether a value is a match. path lists the keys leading
// to value from the root: property names as strings, array indices as
// ints. It is empty for the root value.
type Selector interface {
	Match(path []any, value any) bool
}

// Predicate receives the value's own key (nil for the root) and its depth,
// the number of containers enclosing it.
type Predicate func(key, value any, depth int) bool

func (p Predicate) Match(path []any, value any) bool {
	return p(lastKey(path), value, len(path))
}

// Compile turns a selector argument into a Selector. Strings starting with
// "$." or "$[" are paths; other strings match property keys exactly.
// numbers lets key and regexp selectors match array indices.
func Compile(selector any, numbers bool) (Selector, error) {
	switch sel := selector.(type) {
	case Predicate:
		if sel == nil {
			break
		}
		return sel, nil
	case func(key, value any, depth int) bool:
		if sel == nil {
			break
		}
		return Predicate(sel), nil
	case string:
		if sel == "" {
			return nil, fmt.Errorf("%w: empty string", ErrSelector)
		}
		if strings.HasPrefix(sel, "$.") || strings.HasPrefix(sel, "$[") {
			path, err := compilePath(sel)
			if err != nil {
				return nil, err
			}
			return path, nil
		}
		return keySelector{name: sel, numbers: numbers}, nil
	case *regexp.Regexp:
		if sel == nil {
			break
		}
		return regexpSelector{re: sel, numbers: numbers}, nil
	case Selector:
		return sel, nil
	}

	return nil, fmt.Errorf("%w: unsupported type %T", ErrSelector, selector)
}

func lastKey(path []any) any {
	if len(path) == 0 {
		return nil
	}
	return path[len(path)-1]
}

func keyString(key any, numbers bool) (string, bool) {
	switch k := key.(type) {
	case string:
		return k, true
	case int:
		if numbers {
			return strconv.Itoa(k), true
		}
	}
	return "", false
}

type keySelector struct {
	name    string
	numbers bool
}

func (s keySelector) Match(path []any, _ any) bool {
	key, ok := keyString(lastKey(path), s.numbers)
	return ok && key == s.name
}

type regexpSelector struct {
	re      *regexp.Regexp
	numbers bool
}

func (s regexpSelector) Match(path []any, _ any) bool {
	key, ok := keyString(lastKey(path), s.numbers)
	return ok && s.re.MatchString(key)
}

type segmentKind uint8

const (
	segmentName segmentKind = iota
	segmentIndex
	segmentWildcard
)

type segment struct {
	kind  segmentKind
	name  string
	index int
}

func (s segment) matches(key any) bool {
	switch s.kind {
	case segmentName:
		k, ok := key.(string)
		return ok && k == s.name
	case segmentIndex:
		k, ok := key.(int)
		return ok && k == s.index
	default:
		return true
	}
}

// pathSelector matches values whose key trail has exactly one key per segment.
type pathSelector struct {
	expr     string
	segments []segment
}

func (s pathSelector) Match(path []any, _ any) bool {
	if len(path) != len(s.segments) {
		return false
	}
	for i, seg := range s.segments {
		if !seg.matches(path[i]) {
			return false
		}
	}
	return true
}

func (s pathSelector) String() string {
	return s.expr
}

// compilePath accepts child segments holding a single name, index or
// wildcard selector. Descendants, slices and filters are rejected.
func compilePath(expr string) (pathSelector, error) {
	p, err := jsonpath.Parse(expr)
	if err != nil {
		return pathSelector{}, fmt.Errorf("%w: %w", ErrPath, err)
	}

	q := p.Query()
	segments := make([]segment, 0, len(q.Segments()))
	for i, seg := range q.Segments() {
		if seg.IsDescendant() {
			return pathSelector{}, fmt.Errorf("%w: %s: segment %d is a descendant segment", ErrPath, expr, i)
		}
		sels := seg.Selectors()
		if len(sels) != 1 {
			return pathSelector{}, fmt.Errorf("%w: %s: segment %d has %d selectors", ErrPath, expr, i, len(sels))
		}

		switch sel := sels[0].(type) {
		case spec.Name:
			segments = append(segments, segment{kind: segmentName, name: string(sel)})
		case spec.Index:
			if sel < 0 {
				return pathSelector{}, fmt.Errorf("%w: %s: negative index %d", ErrPath, expr, int(sel))
			}
			segments = append(segments, segment{kind: segmentIndex, index: int(sel)})
		default:
			if fmt.Sprint(sel) != "*" {
				return pathSelector{}, fmt.Errorf("%w: %s: unsupported selector %v", ErrPath, expr, sel)
			}
			segments = append(segments, segment{kind: segmentWildcard})
		}
	}

	return pathSelector{expr: expr, segments: segments}, nil
}
