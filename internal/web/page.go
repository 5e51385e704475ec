// Package web renders the public CV as a standalone HTML page.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"

	"cv-hub/internal/domain/cv"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type Page struct {
	tmpl *template.Template
}

type pageData struct {
	CV         cv.CV
	Skill      string
	ShowFilter bool
}

func NewPage() (*Page, error) {
	tmpl, err := template.New("cv.html.tmpl").
		Funcs(template.FuncMap{"matches": matchesSkill}).
		ParseFS(templateFS, "templates/cv.html.tmpl")
	if err != nil {
		return nil, err
	}
	return &Page{tmpl: tmpl}, nil
}

// Render writes the page for doc. A non-empty skill narrows skills and projects to entries that
// mention it.
func (p *Page) Render(w io.Writer, doc cv.CV, skill string) error {
	skill = strings.TrimSpace(skill)
	return p.tmpl.Execute(w, pageData{
		CV:         FilterBySkill(doc, skill),
		Skill:      skill,
		ShowFilter: true,
	})
}

// RenderPrintable renders the page without the interactive filter form.
func (p *Page) RenderPrintable(doc cv.CV) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, pageData{CV: doc}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FilterBySkill keeps the skills whose name or keywords contain skill, and the projects whose name
// or keywords contain it. Matching is case-insensitive. The input is not modified.
func FilterBySkill(doc cv.CV, skill string) cv.CV {
	if skill == "" {
		return doc
	}

	out := doc
	out.Skills = make([]cv.Skill, 0, len(doc.Skills))
	for _, s := range doc.Skills {
		if matchesSkill(skill, s.Name) || anyMatches(skill, s.Keywords) {
			out.Skills = append(out.Skills, s)
		}
	}

	out.Projects = make([]cv.Project, 0, len(doc.Projects))
	for _, p := range doc.Projects {
		if matchesSkill(skill, p.Name) || anyMatches(skill, p.Keywords) {
			out.Projects = append(out.Projects, p)
		}
	}
	return out
}

func anyMatches(skill string, values []string) bool {
	for _, v := range values {
		if matchesSkill(skill, v) {
			return true
		}
	}
	return false
}

func matchesSkill(skill, value string) bool {
	if skill == "" {
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(skill))
}
