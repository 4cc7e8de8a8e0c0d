package i18n

import (
	"reflect"
	"testing"
)

func mustLanguages(t *testing.T, codes []string, def string, prefixDefault bool) *Languages {
	t.Helper()
	l, err := New(codes, def, prefixDefault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return l
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, "", false); err == nil {
		t.Fatalf("expected empty language list error")
	}
	if _, err := New([]string{" ", ""}, "", false); err == nil {
		t.Fatalf("expected empty language list error")
	}
	if _, err := New([]string{"en", "de"}, "fr", false); err == nil {
		t.Fatalf("expected unknown default error")
	}
	if _, err := New([]string{"!!"}, "", false); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewDefaults(t *testing.T) {
	l := mustLanguages(t, []string{"EN", "de", "en"}, "", false)
	if l.Default() != "en" {
		t.Fatalf("expected first code as default, got %q", l.Default())
	}
	if got := l.Supported(); !reflect.DeepEqual(got, []string{"en", "de"}) {
		t.Fatalf("unexpected supported set: %v", got)
	}
	if !l.IsSupported("de") || l.IsSupported("fr") {
		t.Fatalf("unexpected IsSupported results")
	}
}

func TestSplitPath(t *testing.T) {
	l := mustLanguages(t, []string{"en", "de"}, "en", false)

	cases := []struct {
		in       string
		lang     string
		rest     string
		prefixed bool
	}{
		{"/de/about", "de", "/about", true},
		{"/de/blog/first", "de", "/blog/first", true},
		{"/de", "de", "/", true},
		{"/de/", "de", "/", true},
		{"/about", "", "/about", false},
		{"/", "", "/", false},
		{"/fr/about", "", "/fr/about", false},
		{"/design", "", "/design", false},
	}
	for _, c := range cases {
		lang, rest, ok := l.SplitPath(c.in)
		if lang != c.lang || rest != c.rest || ok != c.prefixed {
			t.Fatalf("SplitPath(%q) = %q,%q,%v, want %q,%q,%v", c.in, lang, rest, ok, c.lang, c.rest, c.prefixed)
		}
	}
}

func TestPathForUnprefixedDefault(t *testing.T) {
	l := mustLanguages(t, []string{"en", "de"}, "en", false)
	if got := l.PathFor("en", "/about"); got != "/about" {
		t.Fatalf("unexpected path: %q", got)
	}
	if got := l.PathFor("en", "/"); got != "/" {
		t.Fatalf("unexpected path: %q", got)
	}
	if got := l.PathFor("de", "/about"); got != "/de/about" {
		t.Fatalf("unexpected path: %q", got)
	}
	if got := l.PathFor("de", "/"); got != "/de/" {
		t.Fatalf("unexpected path: %q", got)
	}
}

func TestPathForPrefixedDefault(t *testing.T) {
	l := mustLanguages(t, []string{"en", "de"}, "en", true)
	if got := l.PathFor("en", "/about"); got != "/en/about" {
		t.Fatalf("unexpected path: %q", got)
	}
	if got := l.PathFor("en", "/"); got != "/en/" {
		t.Fatalf("unexpected path: %q", got)
	}
}

func TestMatch(t *testing.T) {
	l := mustLanguages(t, []string{"en", "de"}, "en", false)

	if got := l.Match(""); got != "en" {
		t.Fatalf("expected default for empty header, got %q", got)
	}
	if got := l.Match("de;q=0.9, en;q=0.8"); got != "de" {
		t.Fatalf("expected de, got %q", got)
	}
	if got := l.Match("de-AT, en;q=0.5"); got != "de" {
		t.Fatalf("expected de for regional variant, got %q", got)
	}
	if got := l.Match("fr"); got != "en" {
		t.Fatalf("expected default for unsupported, got %q", got)
	}
	if got := l.Match("garbage;;;"); got != "en" {
		t.Fatalf("expected default for malformed header, got %q", got)
	}
}
