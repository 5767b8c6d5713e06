package codec

import (
	"testing"
	"time"
)

func TestValidateHeaderName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"Content-Type", true},
		{"X-Custom_Header.1", true},
		{"", false},
		{"Bad Name", false},
		{"Bad:Name", false},
		{"Bad\tName", false},
	}
	for _, c := range cases {
		if got := validateHeaderName(c.name); got != c.want {
			t.Errorf("validateHeaderName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestValidateHeaderValue(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"plain value", true},
		{"", true},
		{"folded\r\n value", true},
		{"bad\r\nvalue", false},
		{"trailing\r\n", false},
		{"has\x00nul", false},
		{"lone\rcr", false},
		{"lone\nlf", false},
	}
	for _, c := range cases {
		if got := validateHeaderValue(c.value); got != c.want {
			t.Errorf("validateHeaderValue(%q) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestIMFFixdateRoundTrip(t *testing.T) {
	in := time.Date(2026, time.March, 5, 12, 30, 0, 0, time.UTC)
	s := formatIMFFixdate(in)
	if s != "Thu, 05 Mar 2026 12:30:00 GMT" {
		t.Fatalf("formatIMFFixdate = %q", s)
	}
	out, err := parseIMFFixdate(s)
	if err != nil {
		t.Fatalf("parseIMFFixdate: %v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("round trip mismatch: got %v want %v", out, in)
	}
}

func TestAsciiFold(t *testing.T) {
	got := string(asciiFold(nil, "héllo\x01"))
	want := "h??llo?"
	if got != want {
		t.Fatalf("asciiFold = %q, want %q", got, want)
	}
}
