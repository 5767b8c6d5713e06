package codec

import "testing"


func TestHeadersAddGet(t *testing.T) {
	h := NewHeaders()
	if err := h.Add("X-Foo", "bar"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := h.Add("X-Foo", "baz"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := h.GetAll("x-foo"); len(got) != 2 || got[0] != "bar" || got[1] != "baz" {
		t.Fatalf("GetAll = %v", got)
	}
	if v, ok := h.Get("X-FOO"); !ok || v != "bar" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
}

func TestHeadersSetReplaces(t *testing.T) {
	h := NewHeaders()
	h.Add("X-Foo", "one")
	h.Add("X-Foo", "two")
	if err := h.Set("X-Foo", "three"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := h.GetAll("X-Foo"); len(got) != 1 || got[0] != "three" {
		t.Fatalf("GetAll after Set = %v", got)
	}
}

func TestHeadersValidatingRejectsBadName(t *testing.T) {
	h := NewHeaders()
	if err := h.Add("Bad Name", "v"); err == nil {
		t.Fatal("expected error for invalid header name")
	}
}

func TestHeadersPermissiveAcceptsAnything(t *testing.T) {
	h := NewPermissiveHeaders()
	if err := h.Add("Bad Name", "v\r\nbad"); err != nil {
		t.Fatalf("permissive Add should not fail: %v", err)
	}
}

func TestHeadersTrailingForbidsFramingNames(t *testing.T) {
	h := NewTrailingHeaders()
	if err := h.Add(HeaderContentLength, "5"); err == nil {
		t.Fatal("expected ErrForbiddenTrailerName for Content-Length")
	}
	if err := h.Add(HeaderTransferEncoding, "chunked"); err == nil {
		t.Fatal("expected ErrForbiddenTrailerName for Transfer-Encoding")
	}
	if err := h.Add(HeaderTrailer, "X-Foo"); err == nil {
		t.Fatal("expected ErrForbiddenTrailerName for Trailer")
	}
	if err := h.Add("X-Foo", "ok"); err != nil {
		t.Fatalf("unrelated header should be allowed: %v", err)
	}
}

func TestEmptyHeadersPanicsOnMutation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic mutating EmptyHeaders")
		}
	}()
	EmptyHeaders().Add("X-Foo", "bar")
}

func TestCombinedHeadersMergesAndSplits(t *testing.T) {
	h := NewCombinedHeaders()
	h.Add("Accept", "text/html")
	h.Add("Accept", "application/json")
	if got := h.Len(); got != 1 {
		t.Fatalf("combined headers should merge into one entry, got Len()=%d", got)
	}
	if got := h.GetAll("Accept"); len(got) != 2 || got[0] != "text/html" || got[1] != "application/json" {
		t.Fatalf("GetAll after merge = %v", got)
	}
}

func TestCombinedHeadersEscapesCommaInValue(t *testing.T) {
	h := NewCombinedHeaders()
	h.Add("X-List", "a,b")
	h.Add("X-List", "c")
	got := h.GetAll("X-List")
	if len(got) != 2 || got[0] != "a,b" || got[1] != "c" {
		t.Fatalf("GetAll with embedded comma = %v", got)
	}
}

func TestCombinedHeadersRoundTripsQuotesAndCommas(t *testing.T) {
	h := NewCombinedHeaders()
	h.Add("X-List", `say "hi", bye`)
	h.Add("X-List", "plain")
	h.Add("X-List", "a,b,c")
	got := h.GetAll("X-List")
	want := []string{`say "hi", bye`, "plain", "a,b,c"}
	if len(got) != len(want) {
		t.Fatalf("GetAll round-trip = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetAll round-trip[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHeadersContainsValueIsTokenAware(t *testing.T) {
	h := NewHeaders()
	h.Add(HeaderConnection, "keep-alive, Upgrade")
	if !h.ContainsValue(HeaderConnection, "upgrade", true) {
		t.Fatal("expected ContainsValue to find case-insensitive token")
	}
	if h.ContainsValue(HeaderConnection, "close", true) {
		t.Fatal("did not expect ContainsValue to find absent token")
	}
}

func TestHeadersRemoveAndClear(t *testing.T) {
	h := NewHeaders()
	h.Add("X-Foo", "1")
	h.Add("X-Bar", "2")
	if !h.Remove("x-foo") {
		t.Fatal("expected Remove to report removal")
	}
	if h.Contains("X-Foo") {
		t.Fatal("X-Foo should be gone")
	}
	h.Clear()
	if h.Len() != 0 {
		t.Fatalf("Clear left %d entries", h.Len())
	}
}

func TestHeadersTypedAccessors(t *testing.T) {
	h := NewHeaders()
	h.AddInt(HeaderContentLength, 42)
	n, err := h.GetInt64(HeaderContentLength)
	if err != nil || n != 42 {
		t.Fatalf("GetInt64 = %d, %v", n, err)
	}
	when, err := parseIMFFixdate("Thu, 05 Mar 2026 12:30:00 GMT")
	if err != nil {
		t.Fatalf("parseIMFFixdate: %v", err)
	}
	h.AddTime(HeaderDate, when)
	got, err := h.GetTime(HeaderDate)
	if err != nil || !got.Equal(when) {
		t.Fatalf("GetTime = %v, %v", got, err)
	}
}
