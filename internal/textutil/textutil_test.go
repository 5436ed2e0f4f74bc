package textutil

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "thesis.pdf", "thesis.pdf"},
		{"whitespace", "  thesis.pdf\n", "thesis.pdf"},
		{"relative path", "media/thesis.pdf", "thesis.pdf"},
		{"windows path", `C:\upload\thesis.pdf`, "thesis.pdf"},
		{"decomposed accent", "re\u0301sume\u0301.pdf", "r\u00e9sum\u00e9.pdf"},
		{"empty", "   ", ""},
		{"trailing slash", "dir/", "dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Fatalf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabelToken(t *testing.T) {
	tests := map[string]string{
		"theses":                 "theses",
		"Theses & Dissertations": "theses_dissertations",
		"  Th\u00e8ses-2024 ":    "theses_2024",
		"Th\u0065\u0300ses":      "theses",
		"!!":                     "unknown",
		"":                       "unknown",
	}
	for input, want := range tests {
		if got := LabelToken(input); got != want {
			t.Fatalf("LabelToken(%q) = %q, want %q", input, got, want)
		}
	}
}
