package codec

import (
	"strings"
	"testing"

	"github.com/yourusername/wavecodec/pkg/netbuf"
)

func TestEncodeRequestWithFixedLengthBody(t *testing.T) {
	e := NewEncoder(EncodeRequests)
	head := NewRequestHead(MethodPOST, "/submit", HTTP11)
	head.Headers.Set(HeaderHost, "example.com")
	head.Headers.SetInt(HeaderContentLength, 5)

	out, err := e.Encode(head)
	if err != nil {
		t.Fatalf("Encode(head): %v", err)
	}
	if !strings.HasPrefix(string(out), "POST /submit HTTP/1.1\r\n") {
		t.Fatalf("unexpected initial line: %q", out)
	}

	body, err := e.Encode(NewContent(netbuf.NewFrom([]byte("hello"))))
	if err != nil {
		t.Fatalf("Encode(content): %v", err)
	}
	if string(body) != "hello" {
		t.Fatalf("unexpected content bytes: %q", body)
	}

	tail, err := e.Encode(EmptyLastContent())
	if err != nil {
		t.Fatalf("Encode(lastcontent): %v", err)
	}
	if len(tail) != 0 {
		t.Fatalf("expected no trailing bytes for fixed-length framing, got %q", tail)
	}
}

func TestEncodeResponseChunked(t *testing.T) {
	e := NewEncoder(EncodeResponses)
	head := NewResponseHead(HTTP11, StatusOK)
	head.Headers.Set(HeaderTransferEncoding, "chunked")

	if _, err := e.Encode(head); err != nil {
		t.Fatalf("Encode(head): %v", err)
	}
	chunk, err := e.Encode(NewContent(netbuf.NewFrom([]byte("abc"))))
	if err != nil {
		t.Fatalf("Encode(content): %v", err)
	}
	if string(chunk) != "3\r\nabc\r\n" {
		t.Fatalf("unexpected chunk framing: %q", chunk)
	}
	last, err := e.Encode(EmptyLastContent())
	if err != nil {
		t.Fatalf("Encode(lastcontent): %v", err)
	}
	if string(last) != "0\r\n\r\n" {
		t.Fatalf("unexpected terminating chunk: %q", last)
	}
}

func TestEncodeAlwaysEmptyDropsBody(t *testing.T) {
	e := NewEncoder(EncodeResponses)
	e.MarkNextAlwaysEmpty()
	head := NewResponseHead(HTTP11, StatusOK)
	head.Headers.SetInt(HeaderContentLength, 100)
	if _, err := e.Encode(head); err != nil {
		t.Fatalf("Encode(head): %v", err)
	}
	out, err := e.Encode(NewContent(netbuf.NewFrom([]byte("should not appear"))))
	if err != nil {
		t.Fatalf("Encode(content): %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected dropped body for always-empty framing, got %q", out)
	}
}

func TestEncodeBodylessResponseStatus(t *testing.T) {
	e := NewEncoder(EncodeResponses)
	head := NewResponseHead(HTTP11, StatusNoContent)
	if _, err := e.Encode(head); err != nil {
		t.Fatalf("Encode(head): %v", err)
	}
	out, err := e.Encode(NewContent(netbuf.NewFrom([]byte("ignored"))))
	if err != nil {
		t.Fatalf("Encode(content): %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("204 must drop content, got %q", out)
	}
}

func TestNormalizeRequestTarget(t *testing.T) {
	cases := map[string]string{
		"":                   "/",
		"*":                  "*",
		"/already":           "/already",
		"path-no-slash":      "/path-no-slash",
		"http://example.com": "http://example.com/",
	}
	for in, want := range cases {
		if got := normalizeRequestTarget(in); got != want {
			t.Errorf("normalizeRequestTarget(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEncodeHeadAndContentPureFunctions(t *testing.T) {
	head := NewRequestHead(MethodGET, "/", HTTP11)
	out, state, err := EncodeHead(head, nil)
	if err != nil {
		t.Fatalf("EncodeHead: %v", err)
	}
	if !strings.Contains(string(out), "GET / HTTP/1.1") {
		t.Fatalf("unexpected head bytes: %q", out)
	}
	tail, err := EncodeContent(state, EmptyLastContent())
	if err != nil {
		t.Fatalf("EncodeContent: %v", err)
	}
	if len(tail) != 0 {
		t.Fatalf("expected empty tail for bodyless GET, got %q", tail)
	}
}
