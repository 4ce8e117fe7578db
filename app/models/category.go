package models

// Category is one node of the tenant's category tree. Parent is empty for
// root nodes.
type Category struct {
	Code   string        `json:"code"`
	Parent string        `json:"parent,omitempty"`
	Labels []LocaleValue `json:"labels,omitempty"`
}
