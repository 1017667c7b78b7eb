package wamp

import "strings"

// MatchKind selects how a registration or subscription URI is compared
// against concrete URIs.
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchPrefix   MatchKind = "prefix"
	MatchWildcard MatchKind = "wildcard"
)

// MatchKindFromOptions reads the "match" key from a SUBSCRIBE/REGISTER
// Options dict, defaulting to exact match.
func MatchKindFromOptions(opts Dict) MatchKind {
	v, ok := opts["match"]
	if !ok {
		return MatchExact
	}
	s, ok := v.(string)
	if !ok {
		return MatchExact
	}
	switch MatchKind(s) {
	case MatchPrefix:
		return MatchPrefix
	case MatchWildcard:
		return MatchWildcard
	default:
		return MatchExact
	}
}

// URI is a dotted WAMP URI: lowercase identifier segments separated by ".".
// Empty segments are permitted only in wildcard-match patterns.
type URI string

// segments splits the URI on ".", preserving empty segments.
func (u URI) segments() []string { return strings.Split(string(u), ".") }

func validSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'z') && r != '_' {
			return false
		}
	}
	return true
}

// ValidURI reports whether u is a syntactically valid URI for the given
// match kind. A concrete URI (used for PUBLISH/CALL) never permits empty
// segments; pattern URIs (used for SUBSCRIBE/REGISTER) permit empty
// segments only when kind is wildcard. strict does not change the result:
// both modes require every non-empty segment to match [0-9a-z_]+.
func (u URI) ValidURI(strict bool, kind string) bool {
	if u == "" {
		return false
	}
	segs := u.segments()
	wildcard := MatchKind(kind) == MatchWildcard
	for _, s := range segs {
		if s == "" {
			if !wildcard {
				return false
			}
			continue
		}
		if !validSegment(s) {
			return false
		}
	}
	return true
}

// HasEmptySegment reports whether u contains any empty "." -separated
// segment, which is only legal for wildcard patterns.
func (u URI) HasEmptySegment() bool {
	for _, s := range u.segments() {
		if s == "" {
			return true
		}
	}
	return false
}

// TopicMatch reports whether concrete URI u matches pattern under kind.
func TopicMatch(pattern URI, kind MatchKind, u URI) bool {
	switch kind {
	case MatchPrefix:
		return u == pattern || strings.HasPrefix(string(u), string(pattern)+".")
	case MatchWildcard:
		pSegs := pattern.segments()
		uSegs := u.segments()
		if len(pSegs) != len(uSegs) {
			return false
		}
		for i, ps := range pSegs {
			if ps == "" {
				continue
			}
			if ps != uSegs[i] {
				return false
			}
		}
		return true
	default: // MatchExact
		return u == pattern
	}
}
