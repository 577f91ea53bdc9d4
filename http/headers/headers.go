// Package headers implements an ordered case-insensitive multi-map of header fields.
package headers

import (
	"iter"
	"strings"

	"github.com/indigo-web/httpcodec/internal/strutil"
	"github.com/indigo-web/utils/strcomp"
)

type Pair struct {
	Name, Value string
}

// Headers is an associative structure for storing header fields. It acts as a map but
// uses linear search instead, which proves to be more efficient on relatively low amount of
// entries, which often enough is the case. Insertion order is preserved.
//
// A validating instance rejects malformed names and values at insertion time. A combining
// instance folds repeated values of the same name into a single comma-separated one.
type Headers struct {
	pairs    []Pair
	validate bool
	combine  bool
}

func New() *Headers {
	return new(Headers)
}

// NewPrealloc returns an instance with pre-allocated underlying storage.
func NewPrealloc(n int) *Headers {
	return &Headers{
		pairs: make([]Pair, 0, n),
	}
}

// NewValidating returns an instance validating every inserted name and value.
func NewValidating() *Headers {
	return &Headers{validate: true}
}

// NewCombining returns an instance folding values of combinable names (all of them except
// Set-Cookie) into a single CSV-escaped value.
func NewCombining(validate bool) *Headers {
	return &Headers{validate: validate, combine: true}
}

// NewFromMap returns a new instance with already inserted values from given map.
// Note: as maps are unordered, resulting underlying structure will also contain unordered
// pairs.
func NewFromMap(m map[string][]string) *Headers {
	h := NewPrealloc(len(m))

	for name, values := range m {
		for _, value := range values {
			h.pairs = append(h.pairs, Pair{Name: name, Value: value})
		}
	}

	return h
}

// Add appends a new pair. On a combining instance the value may be folded into an already
// existing one instead.
func (h *Headers) Add(name, value string) error {
	if err := h.check(name, value); err != nil {
		return err
	}

	if h.combine && combinable(name) {
		escaped := EscapeCSV(value)
		for i := range h.pairs {
			if strcomp.EqualFold(h.pairs[i].Name, name) {
				h.pairs[i].Value += "," + escaped
				return nil
			}
		}

		value = escaped
	}

	h.pairs = append(h.pairs, Pair{Name: name, Value: value})
	return nil
}

// Set replaces all the values of the name by a single one. The first occurrence keeps its
// position, the rest are removed.
func (h *Headers) Set(name, value string) error {
	if err := h.check(name, value); err != nil {
		return err
	}

	if h.combine && combinable(name) {
		value = EscapeCSV(value)
	}

	for i := range h.pairs {
		if strcomp.EqualFold(h.pairs[i].Name, name) {
			h.pairs[i].Value = value
			h.removeFrom(i+1, name)
			return nil
		}
	}

	h.pairs = append(h.pairs, Pair{Name: name, Value: value})
	return nil
}

// AddAll appends all the pairs from the other instance, preserving their order.
func (h *Headers) AddAll(other *Headers) error {
	if other == nil {
		return nil
	}

	for _, pair := range other.pairs {
		if err := h.Add(pair.Name, pair.Value); err != nil {
			return err
		}
	}

	return nil
}

// Value returns the first value, corresponding to the name. Otherwise, empty string is returned
func (h *Headers) Value(name string) string {
	return h.ValueOr(name, "")
}

// ValueOr returns either the first value corresponding to the name or custom value, defined
// via the second parameter.
func (h *Headers) ValueOr(name, or string) string {
	value, found := h.Get(name)
	if !found {
		return or
	}

	return value
}

// Get returns a value and a bool, indicating whether the value was found. If it wasn't, it'll
// be an empty string.
func (h *Headers) Get(name string) (value string, found bool) {
	for _, pair := range h.pairs {
		if strcomp.EqualFold(name, pair.Name) {
			return pair.Value, true
		}
	}

	return "", false
}

// Values returns all values by the name in the insertion order. Returns nil if the name
// doesn't exist.
func (h *Headers) Values(name string) (values []string) {
	for _, pair := range h.pairs {
		if strcomp.EqualFold(pair.Name, name) {
			values = append(values, pair.Value)
		}
	}

	return values
}

// ContainsValue reports whether any of the values of the name, split by commas, equals the
// passed one after trimming whitespaces.
func (h *Headers) ContainsValue(name, value string, ignoreCase bool) bool {
	for _, pair := range h.pairs {
		if !strcomp.EqualFold(pair.Name, name) {
			continue
		}

		for rest := pair.Value; ; {
			token, tail, found := strings.Cut(rest, ",")
			token = strutil.StripWS(token)
			if token == value || (ignoreCase && strcomp.EqualFold(token, value)) {
				return true
			}

			if !found {
				break
			}

			rest = tail
		}
	}

	return false
}

// Has indicates, whether there's an entry of the name.
func (h *Headers) Has(name string) bool {
	_, found := h.Get(name)
	return found
}

// Remove deletes all the entries of the name, reporting whether there were any.
func (h *Headers) Remove(name string) bool {
	n := len(h.pairs)
	h.removeFrom(0, name)

	return len(h.pairs) != n
}

// Names returns all unique presented names in the order of their first occurrence.
func (h *Headers) Names() (names []string) {
	for _, pair := range h.pairs {
		if !contains(names, pair.Name) {
			names = append(names, pair.Name)
		}
	}

	return names
}

// Iter returns an iterator over the pairs.
func (h *Headers) Iter() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, pair := range h.pairs {
			if !yield(pair.Name, pair.Value) {
				break
			}
		}
	}
}

// Len returns a number of stored pairs.
func (h *Headers) Len() int {
	return len(h.pairs)
}

func (h *Headers) Empty() bool {
	return h.Len() == 0
}

// Clone creates a deep copy, which may be used later or stored somewhere safely. The copy
// keeps the validating and combining behaviour.
func (h *Headers) Clone() *Headers {
	clone := &Headers{
		validate: h.validate,
		combine:  h.combine,
	}

	if len(h.pairs) > 0 {
		clone.pairs = make([]Pair, len(h.pairs))
		copy(clone.pairs, h.pairs)
	}

	return clone
}

// Expose exposes the underlying pairs slice.
func (h *Headers) Expose() []Pair {
	return h.pairs
}

// Clear all the entries. However, all the allocated space won't be freed.
func (h *Headers) Clear() *Headers {
	h.pairs = h.pairs[:0]
	return h
}

func (h *Headers) check(name, value string) error {
	if !h.validate {
		return nil
	}

	return Validate(name, value)
}

func (h *Headers) removeFrom(offset int, name string) {
	kept := h.pairs[:offset]
	for _, pair := range h.pairs[offset:] {
		if !strcomp.EqualFold(pair.Name, name) {
			kept = append(kept, pair)
		}
	}

	clear(h.pairs[len(kept):])
	h.pairs = kept
}

func combinable(name string) bool {
	return !strcomp.EqualFold(name, "set-cookie")
}

func contains(collection []string, name string) bool {
	for _, element := range collection {
		if strcomp.EqualFold(element, name) {
			return true
		}
	}

	return false
}
