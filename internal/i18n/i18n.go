// Package i18n holds the configured language set and the URL language-prefix
// rules. A site has one canonical page tree; languages select translated
// field values and a path prefix, never separate trees.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Languages is the language configuration of a deployment.
type Languages struct {
	codes         []string
	ordered       []string
	def           string
	supported     map[string]struct{}
	matcher       language.Matcher
	prefixDefault bool
}

// New builds the set from configuration. def must be among codes (empty def
// picks the first code). With prefixDefault the default language carries a
// URL prefix like every other language; otherwise it lives unprefixed.
func New(codes []string, def string, prefixDefault bool) (*Languages, error) {
	l := &Languages{
		def:           strings.ToLower(strings.TrimSpace(def)),
		prefixDefault: prefixDefault,
		supported:     map[string]struct{}{},
	}
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, ok := l.supported[c]; ok {
			continue
		}
		if _, err := language.Parse(c); err != nil {
			return nil, fmt.Errorf("i18n: parse language %q: %w", c, err)
		}
		l.supported[c] = struct{}{}
		l.codes = append(l.codes, c)
	}
	if len(l.codes) == 0 {
		return nil, fmt.Errorf("i18n: empty language list")
	}
	if l.def == "" {
		l.def = l.codes[0]
	}
	if _, ok := l.supported[l.def]; !ok {
		return nil, fmt.Errorf("i18n: default language %q not among %v", l.def, l.codes)
	}

	// The matcher falls back to its first tag, so the default goes first.
	l.ordered = []string{l.def}
	for _, c := range l.codes {
		if c != l.def {
			l.ordered = append(l.ordered, c)
		}
	}
	tags := make([]language.Tag, len(l.ordered))
	for i, c := range l.ordered {
		tags[i] = language.Make(c)
	}
	l.matcher = language.NewMatcher(tags)
	return l, nil
}

// Default returns the default language code.
func (l *Languages) Default() string { return l.def }

// PrefixDefault reports whether the default language carries a URL prefix.
func (l *Languages) PrefixDefault() bool { return l.prefixDefault }

// Supported returns the language codes in configuration order.
func (l *Languages) Supported() []string {
	out := make([]string, len(l.codes))
	copy(out, l.codes)
	return out
}

// IsSupported reports whether code is a configured language.
func (l *Languages) IsSupported(code string) bool {
	_, ok := l.supported[code]
	return ok
}

// SplitPath strips a leading language prefix from p. ok reports whether a
// supported prefix was present; rest always starts with "/".
func (l *Languages) SplitPath(p string) (lang, rest string, ok bool) {
	trimmed := strings.TrimPrefix(p, "/")
	seg := trimmed
	rest = "/"
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		seg = trimmed[:i]
		rest = trimmed[i:]
	}
	if _, supported := l.supported[seg]; !supported {
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		return "", p, false
	}
	return seg, rest, true
}

// PathFor returns the canonical URL path for p in lang: the default language
// is prefixed only in prefix-default mode, every other language always.
func (l *Languages) PathFor(lang, p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if lang == l.def && !l.prefixDefault {
		return p
	}
	if p == "/" {
		return "/" + lang + "/"
	}
	return "/" + lang + p
}

// Match picks the best supported language for an Accept-Language header
// value, falling back to the default.
func (l *Languages) Match(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return l.def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return l.def
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No {
		return l.def
	}
	return l.ordered[idx]
}
