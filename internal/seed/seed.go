// Package seed loads a YAML fixture of CMS users, pages and investor documents
// and writes it through the services, so a fresh install has content to show.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/corpsite/corpsite-api/internal/investor"
	invservice "github.com/corpsite/corpsite-api/internal/investor/service"
	"github.com/corpsite/corpsite-api/internal/pages"
	"github.com/corpsite/corpsite-api/internal/users"
	"github.com/corpsite/corpsite-api/pkg/logger"
	"gopkg.in/yaml.v3"
)

// File is the seed document layout.
type File struct {
	Users     []User              `yaml:"users"`
	Pages     []pages.Page        `yaml:"pages"`
	Documents []investor.Document `yaml:"documents"`
}

// User is a local CMS account. Password is plain text and hashed on apply.
type User struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

// Targets are the services a seed is written to. Nil targets are skipped.
type Targets struct {
	Users     *users.Service
	Pages     *pages.Service
	Investors invservice.Service
}

// Result counts what Apply wrote and what already existed.
type Result struct {
	Users     int
	Pages     int
	Documents int
	Skipped   int
}

// Decode parses a seed document. Unknown keys are rejected.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &f, nil
}

// Load reads and decodes the seed file at path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Decode(fh)
}

// Apply writes f. Users that already exist and documents whose section and
// title are already listed are skipped; pages are always replaced.
func Apply(ctx context.Context, f *File, t Targets) (Result, error) {
	var res Result
	if t.Users != nil {
		for _, u := range f.Users {
			_, err := t.Users.Create(ctx, u.Username, u.Email, u.Name, u.Role, u.Password)
			switch {
			case errors.Is(err, users.ErrDuplicate):
				res.Skipped++
			case err != nil:
				return res, fmt.Errorf("user %q: %w", u.Username, err)
			default:
				res.Users++
			}
		}
	}

	if t.Pages != nil {
		for _, p := range f.Pages {
			if _, err := t.Pages.Put(ctx, p.Slug, p.Title, p.Sections, "seed"); err != nil {
				return res, fmt.Errorf("page %q: %w", p.Slug, err)
			}
			res.Pages++
		}
	}

	if t.Investors != nil {
		existing := map[string]map[string]bool{}
		for _, d := range f.Documents {
			titles, ok := existing[d.Section]
			if !ok {
				l, err := t.Investors.List(ctx, d.Section, invservice.AllYears)
				if err != nil {
					return res, fmt.Errorf("list %s: %w", d.Section, err)
				}
				titles = map[string]bool{}
				for _, cur := range l.Documents {
					titles[cur.Title] = true
				}
				existing[d.Section] = titles
			}
			if titles[d.Title] {
				res.Skipped++
				continue
			}
			doc := d
			if _, err := t.Investors.Import(ctx, &doc); err != nil {
				return res, fmt.Errorf("document %q: %w", d.Title, err)
			}
			titles[d.Title] = true
			res.Documents++
		}
	}

	logger.Infof("seed applied: users=%d pages=%d documents=%d skipped=%d", res.Users, res.Pages, res.Documents, res.Skipped)
	return res, nil
}
