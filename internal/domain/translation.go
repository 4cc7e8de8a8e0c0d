package domain

// Translation is one localized field value for a page. Only fields declared
// translatable by the page's type accept values.
type Translation struct {
	PageID string `json:"-"`
	Lang   string `json:"lang"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}
