package htmlutil

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain markup passes through",
			input: "<p>Welcome to History 101.</p>",
			want:  "<p>Welcome to History 101.</p>",
		},
		{
			name:  "plain text passes through",
			input: "hello",
			want:  "hello",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only input",
			input: "   \n\t",
			want:  "",
		},
		{
			name:  "script tag is dropped entirely",
			input: "<p>safe</p><script>alert(1)</script>",
			want:  "<p>safe</p>",
		},
		{
			name:  "nested script is dropped",
			input: "<div><script>alert(1)</script><p>ok</p></div>",
			want:  "<div><p>ok</p></div>",
		},
		{
			name:  "event handler attributes are stripped",
			input: `<p onclick="steal()">hi</p>`,
			want:  "<p>hi</p>",
		},
		{
			name:  "javascript href is dropped",
			input: `<a href="javascript:alert(1)">link</a>`,
			want:  "<a>link</a>",
		},
		{
			name:  "safe href survives",
			input: `<a href="https://example.com/syllabus">link</a>`,
			want:  `<a href="https://example.com/syllabus">link</a>`,
		},
		{
			name:  "iframe is dropped",
			input: `<iframe src="https://evil.example"></iframe><p>body</p>`,
			want:  "<p>body</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.input)
			if err != nil {
				t.Fatalf("Sanitize(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// Whitespace and case tricks inside the scheme must not get past the URL
// check.
func TestSanitizeObfuscatedSchemes(t *testing.T) {
	inputs := []string{
		`<a href="JaVaScRiPt:alert(1)">x</a>`,
		"<a href=\"java\nscript:alert(1)\">x</a>",
		`<a href="vbscript:msgbox(1)">x</a>`,
		`<a href="data:text/html,<script>alert(1)</script>">x</a>`,
	}

	for _, input := range inputs {
		got, err := Sanitize(input)
		if err != nil {
			t.Fatalf("Sanitize(%q) returned error: %v", input, err)
		}
		if strings.Contains(got, "href") {
			t.Errorf("Sanitize(%q) kept an unsafe href: %q", input, got)
		}
	}
}
