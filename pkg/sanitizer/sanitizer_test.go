package sanitizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{"valid E.164 format", "+972541234567", "US", "+972541234567"},
		{"with spaces", "+972 54 123 4567", "US", "+972541234567"},
		{"with dashes", "+972-54-123-4567", "US", "+972541234567"},
		{"with parentheses", "+1 (650) 253-0000", "IL", "+16502530000"},
		{"national number uses default region", "(650) 253-0000", "US", "+16502530000"},
		{"lowercase region", "650 253 0000", "us", "+16502530000"},
		{"leading and trailing spaces", "  +972541234567  ", "US", "+972541234567"},
		{"empty string", "", "US", ""},
		{"only whitespace", "   ", "US", ""},
		{"letters", "call me maybe", "US", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input, tt.region); got != tt.want {
				t.Errorf("NormalizePhone(%q, %q) = %q, want %q", tt.input, tt.region, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	once := NormalizePhone("+972 54 123 4567", "US")
	if twice := NormalizePhone(once, "US"); twice != once {
		t.Errorf("not idempotent: %q then %q", once, twice)
	}
}

func TestPhoneRegion(t *testing.T) {
	tests := map[string]string{
		"+972541234567": "IL",
		"+16502530000":  "US",
		"+442079460000": "GB",
		"":              "",
		"garbage":       "",
	}
	for phone, want := range tests {
		if got := PhoneRegion(phone); got != want {
			t.Errorf("PhoneRegion(%q) = %q, want %q", phone, got, want)
		}
	}
}

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Ada   Lovelace  ", "Ada Lovelace"},
		{"Linear\t\tAlgebra", "Linear Algebra"},
		{"multi\nline", "multi line"},
		{"", ""},
		{"   ", ""},
		{"bell\x07char", "bellchar"},
	}
	for _, tt := range tests {
		if got := TrimAndNormalize(tt.input); got != tt.want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("  line one\r\nline two  "); got != "line one\nline two" {
		t.Errorf("NormalizeText = %q", got)
	}
}

func TestNormalizeSubjects(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"trim and collapse", []string{"  Linear   Algebra "}, []string{"Linear Algebra"}},
		{"case-insensitive duplicates keep first", []string{"Math", "math", "MATH"}, []string{"Math"}},
		{"filter empty", []string{"Physics", "", "  ", "Chemistry"}, []string{"Physics", "Chemistry"}},
		{"nil input", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSubjects(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeSubjects(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIDs(t *testing.T) {
	got := NormalizeIDs([]string{" a ", "a", "b", ""})
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("NormalizeIDs = %v", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"meet.example.com/Room-42", "https://meet.example.com/Room-42"},
		{"HTTPS://Docs.Example.com/d/AbC?x=Y", "https://docs.example.com/d/AbC?x=Y"},
		{"http://example.com", "http://example.com"},
		{"  ", ""},
		{"https://", ""},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.input); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPipeline(t *testing.T) {
	p := Pipeline{strings.TrimSpace, strings.ToUpper}
	if got := p.Apply("  abc "); got != "ABC" {
		t.Errorf("Pipeline.Apply = %q", got)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 1, 3) != 3 || Clamp(-1, 0, 10) != 0 || Clamp(4, 0, 10) != 4 {
		t.Error("Clamp returned an out of range value")
	}
}
