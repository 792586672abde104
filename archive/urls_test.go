package archive

import (
	"errors"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/path  ", "https://example.com/path"},
		{"http://example.com", "http://example.com"},
		{"https://example.com", "https://example.com"},
	}

	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSnapshotURL(t *testing.T) {
	const ts = "20260101020758"

	plain := SnapshotURL(DefaultBaseURL, ts, "https://a16z.com/", ModeNone)
	if plain != "https://web.archive.org/web/20260101020758/https://a16z.com/" {
		t.Errorf("plain = %q", plain)
	}

	fast := SnapshotURL(DefaultBaseURL, ts, "https://a16z.com/", ModeFast)
	if fast != "https://web.archive.org/web/20260101020758id_/https://a16z.com/" {
		t.Errorf("fast = %q", fast)
	}
}

func TestConvertToFetchMode(t *testing.T) {
	const want = "https://web.archive.org/web/20260101020758id_/https://a16z.com/"

	// Every replay variant rewrites to the same fast-fetch form.
	for _, in := range []string{
		"https://web.archive.org/web/20260101020758/https://a16z.com/",
		"https://web.archive.org/web/20260101020758if_/https://a16z.com/",
		"https://web.archive.org/web/20260101020758id_/https://a16z.com/",
		"https://web.archive.org/web/20260101020758js_/https://a16z.com/",
	} {
		got, err := ConvertToFetchMode(in)
		if err != nil {
			t.Errorf("ConvertToFetchMode(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ConvertToFetchMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConvertToFetchMode_Invalid(t *testing.T) {
	for _, in := range []string{
		"https://example.com/",
		"https://web.archive.org/web/2026/https://a16z.com/",      // short timestamp
		"https://web.archive.org/web/202601010207580/",            // no target
		"https://web.archive.org/web/2026010102075x/https://a.io", // non-digit
	} {
		_, err := ConvertToFetchMode(in)
		if err == nil {
			t.Errorf("ConvertToFetchMode(%q) accepted an invalid URL", in)
			continue
		}
		var invalid *InvalidURLError
		if !errors.As(err, &invalid) {
			t.Errorf("ConvertToFetchMode(%q) error kind = %T", in, err)
		}
	}
}

func TestSnapshotURL_RoundTrip(t *testing.T) {
	built := SnapshotURL(DefaultBaseURL, "20200515120000", "https://example.com/page", ModeNone)
	got, err := ConvertToFetchMode(built)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	want := SnapshotURL(DefaultBaseURL, "20200515120000", "https://example.com/page", ModeFast)
	if got != want {
		t.Errorf("round trip = %q, want %q", got, want)
	}
}
