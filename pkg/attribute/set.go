package attribute

import (
	"sort"
	"strings"
)

// Set is an immutable, canonically-ordered collection of attributes.
// Two sets built from the same key-value mapping produce the same Key(),
// regardless of insertion order. Duplicate keys keep the last value.
type Set struct {
	kvs []KeyValue
	key string
}

// EmptySet is the set with no attributes.
var EmptySet = Set{}

// NewSet builds a Set from the given attributes.
func NewSet(kvs ...KeyValue) Set {
	if len(kvs) == 0 {
		return EmptySet
	}

	sorted := make([]KeyValue, len(kvs))
	copy(sorted, kvs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	// Last value wins for duplicate keys.
	out := sorted[:0]
	for i, kv := range sorted {
		if i+1 < len(sorted) && sorted[i+1].Key == kv.Key {
			continue
		}
		out = append(out, kv)
	}

	var b strings.Builder
	for i, kv := range out {
		if i > 0 {
			b.WriteByte(',')
		}
		appendEscaped(&b, kv.Key)
		b.WriteByte('=')
		appendEscaped(&b, kv.ValueString())
	}

	return Set{kvs: out, key: b.String()}
}

// appendEscaped writes s with the key separators backslash-escaped, so a
// separator inside a key or value can never collide with the structural
// separators of the canonical form.
func appendEscaped(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', ',', '=':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
}

// Key returns the canonical identity of the set. Sets with identical
// key-value mappings share the same Key; any difference in keys or values
// yields a distinct Key.
func (s Set) Key() string {
	return s.key
}

// Attributes returns a copy of the attributes in canonical order.
func (s Set) Attributes() []KeyValue {
	if len(s.kvs) == 0 {
		return nil
	}
	out := make([]KeyValue, len(s.kvs))
	copy(out, s.kvs)
	return out
}

// Len returns the number of attributes in the set.
func (s Set) Len() int {
	return len(s.kvs)
}
