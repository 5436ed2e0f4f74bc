package storage

import (
	"context"
	"testing"
	"unicode/utf8"
)

type plainBackend struct{}

func (plainBackend) Upload(context.Context, string, string) error { return nil }
func (plainBackend) Share(context.Context, string) (string, error) { return "", nil }
func (plainBackend) List(context.Context, string) ([]Entry, error) { return nil, nil }

type identityBackend struct{ plainBackend }

func (identityBackend) NormalizeLink(raw string) string { return raw }

func TestNormalizeLink(t *testing.T) {
	raw := "https://www.dropbox.com/s/abc/thesis.pdf?dl=0"
	if got := NormalizeLink(plainBackend{}, raw); got != "https://www.dropbox.com/s/abc/thesis.pdf?dl=1" {
		t.Fatalf("unexpected default normalization %q", got)
	}
	if got := NormalizeLink(identityBackend{}, raw); got != raw {
		t.Fatalf("expected backend normalizer to win, got %q", got)
	}
	if got := DirectDownloadLink(""); got != "" {
		t.Fatalf("expected empty link to stay empty, got %q", got)
	}
}

func TestDirectDownloadLinkReplacesWholeRune(t *testing.T) {
	got := DirectDownloadLink("https://files.example.test/th\u00e8se\u00e9")
	if !utf8.ValidString(got) {
		t.Fatalf("result is not valid UTF-8: %q", got)
	}
	if got != "https://files.example.test/th\u00e8se1" {
		t.Fatalf("unexpected link %q", got)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		segments []string
		want     string
	}{
		{[]string{"/ETDs", "theses", "etd_1", "thesis.pdf"}, "/ETDs/theses/etd_1/thesis.pdf"},
		{[]string{"ETDs/", "theses"}, "ETDs/theses"},
		{[]string{"", "theses", " "}, "theses"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := Key(tt.segments...); got != tt.want {
			t.Fatalf("Key(%q) = %q, want %q", tt.segments, got, tt.want)
		}
	}
}

func TestFilesSkipsDirectories(t *testing.T) {
	files := Files([]Entry{{Name: "a.pdf", Size: 3}, {Name: "sub", Dir: true}})
	if len(files) != 1 || files["a.pdf"].Size != 3 {
		t.Fatalf("unexpected files %+v", files)
	}
}
