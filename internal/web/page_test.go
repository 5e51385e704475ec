package web

import (
	"bytes"
	"testing"

	"cv-hub/internal/domain/cv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() cv.CV {
	return cv.CV{
		Basics: cv.Basics{Name: "Ada <Lovelace>", Label: "Engineer"},
		Skills: []cv.Skill{
			{Name: "Backend", Keywords: []string{"Go", "PostgreSQL"}},
			{Name: "Frontend", Keywords: []string{"TypeScript"}},
		},
		Projects: []cv.Project{
			{Name: "cv-hub", Keywords: []string{"go", "sqlite"}},
			{Name: "dashboard", Keywords: []string{"react"}},
		},
	}
}

func TestFilterBySkill(t *testing.T) {
	doc := testDoc()

	out := FilterBySkill(doc, "GO")
	require.Len(t, out.Skills, 1)
	assert.Equal(t, "Backend", out.Skills[0].Name)
	require.Len(t, out.Projects, 1)
	assert.Equal(t, "cv-hub", out.Projects[0].Name)

	assert.Len(t, doc.Skills, 2, "input untouched")
	assert.Equal(t, doc, FilterBySkill(doc, ""))
}

func TestRender_EscapesAndHighlights(t *testing.T) {
	p, err := NewPage()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf, testDoc(), "typescript"))
	html := buf.String()

	assert.Contains(t, html, "Ada &lt;Lovelace&gt;")
	assert.Contains(t, html, `class="tag match">TypeScript`)
	assert.NotContains(t, html, "PostgreSQL")
	assert.Contains(t, html, `name="skill" value="typescript"`)
}

func TestRenderPrintable_NoFilterForm(t *testing.T) {
	p, err := NewPage()
	require.NoError(t, err)

	out, err := p.RenderPrintable(testDoc())
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<form")
	assert.Contains(t, string(out), "PostgreSQL")
}
