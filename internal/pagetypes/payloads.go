package pagetypes

import "time"

// ContentFields is the payload of the basic content page.
type ContentFields struct {
	Body string `json:"body"`
}

func (f *ContentFields) PageType() string { return TypePage }

func (f *ContentFields) Localize(values map[string]string) {
	if v, ok := values["body"]; ok {
		f.Body = v
	}
}

// CategoryFields is the payload of a category page.
type CategoryFields struct {
	Intro string `json:"intro"`
}

func (f *CategoryFields) PageType() string { return TypeCategory }

func (f *CategoryFields) Localize(values map[string]string) {
	if v, ok := values["intro"]; ok {
		f.Intro = v
	}
}

// PostFields is the payload of a blog post.
type PostFields struct {
	Body        string     `json:"body"`
	Excerpt     string     `json:"excerpt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

func (f *PostFields) PageType() string { return TypePost }

func (f *PostFields) Localize(values map[string]string) {
	if v, ok := values["body"]; ok {
		f.Body = v
	}
	if v, ok := values["excerpt"]; ok {
		f.Excerpt = v
	}
}
