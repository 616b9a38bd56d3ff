package investor

import (
	"errors"
	"strings"
)

// Document is one investor-relations entry: a report, filing, call recording
// or external link shown on a section page.
//
// PublishedDate is free text as entered in the CMS (normally DD/MM/YYYY).
// CreatedAt is an RFC3339 timestamp assigned by the store on insert.
type Document struct {
	ID            string `json:"id" bson:"id" yaml:"id,omitempty"`
	Section       string `json:"section" bson:"section" yaml:"section"`
	Title         string `json:"title" bson:"title" yaml:"title"`
	PDFURL        string `json:"pdfUrl,omitempty" bson:"pdfUrl,omitempty" yaml:"pdfUrl,omitempty"`
	AudioURL      string `json:"audioUrl,omitempty" bson:"audioUrl,omitempty" yaml:"audioUrl,omitempty"`
	Link          string `json:"link,omitempty" bson:"link,omitempty" yaml:"link,omitempty"`
	Year          string `json:"year,omitempty" bson:"year,omitempty" yaml:"year,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty" bson:"publishedDate,omitempty" yaml:"publishedDate,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty" bson:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty" bson:"updatedAt,omitempty" yaml:"-"`
}

// Sections served by the investor-relations pages.
var Sections = []string{
	"annual-reports",
	"quarterly-results",
	"shareholding-pattern",
	"announcements",
	"earnings-calls",
	"agm-notices",
	"policies",
	"investor-presentations",
	"credit-ratings",
}

var (
	ErrUnknownSection = errors.New("unknown investor section")
	ErrTitleRequired  = errors.New("title is required")
	ErrNoResource     = errors.New("one of pdfUrl, audioUrl or link is required")
)

// ValidSection reports whether s is one of Sections.
func ValidSection(s string) bool {
	for _, v := range Sections {
		if v == s {
			return true
		}
	}
	return false
}

// Validate checks the fields the CMS forms require.
func (d *Document) Validate() error {
	if !ValidSection(d.Section) {
		return ErrUnknownSection
	}
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if d.PDFURL == "" && d.AudioURL == "" && d.Link == "" {
		return ErrNoResource
	}
	return nil
}

// Patch carries the optional fields of a CMS edit; nil fields are left alone.
type Patch struct {
	Title         *string `json:"title,omitempty"`
	PDFURL        *string `json:"pdfUrl,omitempty"`
	AudioURL      *string `json:"audioUrl,omitempty"`
	Link          *string `json:"link,omitempty"`
	Year          *string `json:"year,omitempty"`
	PublishedDate *string `json:"publishedDate,omitempty"`
}

// Apply copies the set fields of p onto d.
func (p Patch) Apply(d *Document) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&d.Title, p.Title)
	set(&d.PDFURL, p.PDFURL)
	set(&d.AudioURL, p.AudioURL)
	set(&d.Link, p.Link)
	set(&d.Year, p.Year)
	set(&d.PublishedDate, p.PublishedDate)
}
