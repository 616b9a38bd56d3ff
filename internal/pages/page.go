// Package pages stores the editable CMS pages (about, governance, contact
// blurbs) as markdown and renders them to HTML for the public site.
package pages

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("page not found")
	ErrInvalidSlug = errors.New("slug must be lowercase words separated by hyphens or slashes")
)

// slugs are path-like: "about", "products/steel-pipes"
var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*(?:/[a-z0-9]+(?:-[a-z0-9]+)*)*$`)

// Section is one editable block of a page. Body holds markdown; Fields carries
// structured values (figures, image URLs) the frontend places itself.
type Section struct {
	Key     string            `bson:"key" json:"key" yaml:"key"`
	Heading string            `bson:"heading,omitempty" json:"heading,omitempty" yaml:"heading,omitempty"`
	Body    string            `bson:"body,omitempty" json:"body,omitempty" yaml:"body,omitempty"`
	Fields  map[string]string `bson:"fields,omitempty" json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Page is a CMS page.
type Page struct {
	Slug      string    `bson:"slug" json:"slug" yaml:"slug"`
	Title     string    `bson:"title" json:"title" yaml:"title"`
	Sections  []Section `bson:"sections" json:"sections" yaml:"sections"`
	UpdatedBy string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty" yaml:"-"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}

// SectionView is a section with its rendered body.
type SectionView struct {
	Section
	BodyHTML string `json:"bodyHtml"`
}

// View is a page as served to the public site.
type View struct {
	Slug      string        `json:"slug"`
	Title     string        `json:"title"`
	Sections  []SectionView `json:"sections"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NormalizeSlug lowercases s and trims spaces and slashes, then validates it.
func NormalizeSlug(s string) (string, error) {
	s = strings.Trim(strings.ToLower(strings.TrimSpace(s)), "/")
	if !slugRe.MatchString(s) {
		return "", ErrInvalidSlug
	}
	return s, nil
}
