package codec

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cast"
)

// entry is one (name, value) pair in a Headers container, keeping the
// original insertion casing of name for serialization while comparisons
// against it go through strings.EqualFold.
type entry struct {
	name  string
	value string
}

// headerMode selects how a Headers container treats insertion.
type headerMode uint8

const (
	modePermissive headerMode = iota
	modeValidating
	modeTrailing // validating + rejects Content-Length/Transfer-Encoding/Trailer
)

// Headers is an ordered multimap of header name to values. Ordering is
// insertion order across all entries, not grouped by name, matching the
// wire order an HTTP message actually carries. The zero value is not
// usable; construct with NewHeaders, NewPermissiveHeaders, or
// NewTrailingHeaders.
type Headers struct {
	entries  []entry
	mode     headerMode
	combined bool
}

// NewHeaders returns an empty, validating Headers container: every Add/Set
// runs the name and value grammar and returns an error on violation.
func NewHeaders() *Headers {
	return &Headers{mode: modeValidating}
}

// NewPermissiveHeaders returns an empty Headers container that skips name
// and value grammar validation, for use when decoding from a trusted or
// already-validated source.
func NewPermissiveHeaders() *Headers {
	return &Headers{mode: modePermissive}
}

// NewTrailingHeaders returns an empty, validating Headers container that
// additionally rejects Content-Length, Transfer-Encoding, and Trailer,
// per the trailing-headers sub-variant in the data model.
func NewTrailingHeaders() *Headers {
	return &Headers{mode: modeTrailing}
}

// NewCombinedHeaders returns an empty Headers container whose Add merges
// repeated additions of the same name into one CSV-joined value (RFC 7230
// §3.2.2) instead of appending a second entry.
func NewCombinedHeaders() *Headers {
	return &Headers{mode: modeValidating, combined: true}
}

// emptyHeaders is the distinguished immutable singleton used as the
// default trailing-header set on a LastContent carrying none. Any
// mutating method on it panics; callers that need to accumulate trailers
// must Clone it or construct their own container.
var emptyHeaders = &Headers{mode: modeTrailing}

// EmptyHeaders returns the shared immutable empty Headers singleton.
func EmptyHeaders() *Headers { return emptyHeaders }

func (h *Headers) checkMutable() {
	if h == emptyHeaders {
		panic("codec: mutation of EmptyHeaders")
	}
}

func (h *Headers) validateInsert(name, value string) error {
	if h.mode == modePermissive {
		return nil
	}
	if h.mode == modeTrailing && forbiddenTrailerNames[canonicalTrailerName(name)] {
		return wrapf(ErrForbiddenTrailerName, "header %q forbidden on trailing headers", name)
	}
	if !validateHeaderName(name) {
		return wrapf(ErrInvalidHeaderName, "header name %q", name)
	}
	if !validateHeaderValue(value) {
		return wrapf(ErrInvalidHeaderValue, "header %q value %q", name, value)
	}
	return nil
}

// canonicalTrailerName matches name against the three forbidden trailer
// names case-insensitively without allocating when no match is possible.
func canonicalTrailerName(name string) string {
	for forbidden := range forbiddenTrailerNames {
		if strings.EqualFold(name, forbidden) {
			return forbidden
		}
	}
	return name
}

// Add appends a (name, value) pair. In a combined container, Add merges
// into an existing entry of the same name instead of appending a second
// one, CSV-escaping the new value first.
func (h *Headers) Add(name, value string) error {
	h.checkMutable()
	if err := h.validateInsert(name, value); err != nil {
		return err
	}
	if h.combined {
		if idx := h.indexOf(name); idx >= 0 {
			h.entries[idx].value = h.entries[idx].value + "," + csvEscape(value)
			return nil
		}
		value = csvEscape(value)
	}
	h.entries = append(h.entries, entry{name: name, value: value})
	return nil
}

// AddAll adds every value under name, collecting every validation failure
// into one multi-cause error instead of stopping at the first.
func (h *Headers) AddAll(name string, values ...string) error {
	var result *multierror.Error
	for _, v := range values {
		if err := h.Add(name, v); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// AddInt adds an integer value, converting it to decimal text.
func (h *Headers) AddInt(name string, value int) error {
	return h.Add(name, strconv.Itoa(value))
}

// AddTime adds a time.Time value formatted as IMF-fixdate at the time of
// insertion (not at serialization), per the typed Date setter contract.
func (h *Headers) AddTime(name string, value time.Time) error {
	return h.Add(name, formatIMFFixdate(value))
}

// Set replaces every existing value under name with exactly value.
func (h *Headers) Set(name, value string) error {
	h.checkMutable()
	if err := h.validateInsert(name, value); err != nil {
		return err
	}
	h.removeAll(name)
	v := value
	if h.combined {
		v = csvEscape(value)
	}
	h.entries = append(h.entries, entry{name: name, value: v})
	return nil
}

// SetInt replaces every existing value under name with a decimal integer.
func (h *Headers) SetInt(name string, value int) error {
	return h.Set(name, strconv.Itoa(value))
}

// Remove deletes every entry with the given name, reporting whether
// anything was removed.
func (h *Headers) Remove(name string) bool {
	h.checkMutable()
	before := len(h.entries)
	h.removeAll(name)
	return len(h.entries) != before
}

func (h *Headers) removeAll(name string) {
	kept := h.entries[:0]
	for _, e := range h.entries {
		if !strings.EqualFold(e.name, name) {
			kept = append(kept, e)
		}
	}
	h.entries = kept
}

// Clear removes every entry.
func (h *Headers) Clear() {
	h.checkMutable()
	h.entries = h.entries[:0]
}

func (h *Headers) indexOf(name string) int {
	for i, e := range h.entries {
		if strings.EqualFold(e.name, name) {
			return i
		}
	}
	return -1
}

// Get returns the first value under name and whether it was present.
func (h *Headers) Get(name string) (string, bool) {
	if idx := h.indexOf(name); idx >= 0 {
		if h.combined {
			if vs := h.csvValuesAt(idx); len(vs) > 0 {
				return vs[0], true
			}
		}
		return h.entries[idx].value, true
	}
	return "", false
}

// GetString returns the first value under name, or "" if absent.
func (h *Headers) GetString(name string) string {
	v, _ := h.Get(name)
	return v
}

// GetAll returns every value under name, in insertion order. A combined
// container unescapes and splits its single stored value back into the
// list of values that were added.
func (h *Headers) GetAll(name string) []string {
	var out []string
	for i, e := range h.entries {
		if strings.EqualFold(e.name, name) {
			if h.combined {
				out = append(out, h.csvValuesAt(i)...)
			} else {
				out = append(out, e.value)
			}
		}
	}
	return out
}

// csvValuesAt splits the merged value stored at idx back into the
// individual values csvEscape originally joined, honoring quoting: a
// comma inside a double-quoted field does not split the field, and a
// doubled quote inside a quoted field is a literal quote (RFC 4180
// escaping, matching csvEscape). strings.Split cannot do this since it
// has no notion of quote state.
func (h *Headers) csvValuesAt(idx int) []string {
	raw := h.entries[idx].value
	var out []string
	var field strings.Builder
	inQuotes := false
	flush := func() {
		out = append(out, csvUnescape(strings.TrimSpace(field.String())))
		field.Reset()
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(raw) && raw[i+1] == '"' {
				field.WriteByte('"')
				field.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
			field.WriteByte(c)
		case c == ',' && !inQuotes:
			flush()
		default:
			field.WriteByte(c)
		}
	}
	flush()
	return out
}

// GetInt parses the first value under name as a base-10 integer using
// github.com/spf13/cast, rather than a hand-rolled strconv call, since
// cast already normalizes whitespace and common numeric spellings.
func (h *Headers) GetInt(name string) (int, error) {
	v, ok := h.Get(name)
	if !ok {
		return 0, wrapf(ErrInvalidHeaderValue, "header %q absent", name)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, wrapf(ErrInvalidHeaderValue, "header %q: %v", name, err)
	}
	return n, nil
}

// GetInt64 is GetInt for int64-sized values (used for Content-Length).
func (h *Headers) GetInt64(name string) (int64, error) {
	v, ok := h.Get(name)
	if !ok {
		return 0, wrapf(ErrInvalidHeaderValue, "header %q absent", name)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, wrapf(ErrInvalidHeaderValue, "header %q: %v", name, err)
	}
	return n, nil
}

// GetTime parses the first value under name as an IMF-fixdate timestamp.
func (h *Headers) GetTime(name string) (time.Time, error) {
	v, ok := h.Get(name)
	if !ok {
		return time.Time{}, wrapf(ErrInvalidHeaderValue, "header %q absent", name)
	}
	t, err := parseIMFFixdate(v)
	if err != nil {
		return time.Time{}, wrapf(ErrInvalidHeaderValue, "header %q: %v", name, err)
	}
	return t, nil
}

// Contains reports whether any entry exists under name.
func (h *Headers) Contains(name string) bool {
	return h.indexOf(name) >= 0
}

// ContainsValue reports whether name carries value among its entries,
// optionally case-insensitively and CSV-aware (splitting each stored
// value on ',' and trimming before comparing, per RFC 7230 §3.2.2 list
// syntax — used for Connection/Transfer-Encoding token checks).
func (h *Headers) ContainsValue(name, value string, ignoreCase bool) bool {
	equal := func(a, b string) bool {
		if ignoreCase {
			return strings.EqualFold(a, b)
		}
		return a == b
	}
	for _, v := range h.GetAll(name) {
		for _, tok := range strings.Split(v, ",") {
			if equal(strings.TrimSpace(tok), value) {
				return true
			}
		}
	}
	return false
}

// Names returns the distinct header names present, each appearing once,
// in the order each name's first entry was inserted.
func (h *Headers) Names() []string {
	seen := make(map[string]bool, len(h.entries))
	var out []string
	for _, e := range h.entries {
		key := strings.ToLower(e.name)
		if !seen[key] {
			seen[key] = true
			out = append(out, e.name)
		}
	}
	return out
}

// Len returns the number of (name, value) entries, mirroring the teacher
// pack's Header.Len().
func (h *Headers) Len() int { return len(h.entries) }

// VisitAll calls fn once per entry in insertion order. For a combined
// container, fn sees one call per stored (merged) entry, not per
// originally-added value; use GetAll to see individual values.
func (h *Headers) VisitAll(fn func(name, value string)) {
	for _, e := range h.entries {
		fn(e.name, e.value)
	}
}

// Clone returns a deep copy, independent of the receiver.
func (h *Headers) Clone() *Headers {
	clone := &Headers{
		entries:  make([]entry, len(h.entries)),
		mode:     h.mode,
		combined: h.combined,
	}
	copy(clone.entries, h.entries)
	return clone
}

// sortedNames returns Names() sorted alphabetically, independent of
// insertion order.
func (h *Headers) sortedNames() []string {
	names := h.Names()
	sort.Strings(names)
	return names
}

// csvEscape quotes value per RFC 4180-style CSV escaping if it contains a
// comma, quote, CR, or LF, matching the combined-headers contract's
// "CSV-escaped" wording.
func csvEscape(value string) string {
	if !strings.ContainsAny(value, ",\"\r\n") {
		return value
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(value); i++ {
		if value[i] == '"' {
			b.WriteByte('"')
		}
		b.WriteByte(value[i])
	}
	b.WriteByte('"')
	return b.String()
}

// csvUnescape reverses csvEscape.
func csvUnescape(value string) string {
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return value
	}
	inner := value[1 : len(value)-1]
	return strings.ReplaceAll(inner, `""`, `"`)
}
