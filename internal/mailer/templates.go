package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"vridhashram/pkg/types"

	"github.com/shopspring/decimal"
)

//go:embed templates
var templateFS embed.FS

const (
	TemplateDonationAdmin       = "donation.admin"
	TemplateDonationReceived    = "donation.received"
	TemplateDonationCertificate = "donation.certificate"
	TemplateDonationRejected    = "donation.rejected"
)

// DonationEmail is the data every donation template renders against.
type DonationEmail struct {
	Org      OrgDetails
	Donation *types.Donation
	Reason   string
}

type OrgDetails struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Website string
}

type Templates struct {
	t *template.Template
}

func LoadTemplates() (*Templates, error) {
	funcMap := template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"date": func(t any) string {
			switch v := t.(type) {
			case time.Time:
				return v.Format("02 Jan 2006")
			case *time.Time:
				if v == nil {
					return ""
				}
				return v.Format("02 Jan 2006")
			}
			return ""
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(templateFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Templates{t: t}, nil
}

func (t *Templates) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
