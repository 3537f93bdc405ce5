package render

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	ginrender "github.com/gin-gonic/gin/render"
	"github.com/timmy/wishpage/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// NotRecognizedTemplate renders records whose componentType maps to no template.
const NotRecognizedTemplate = "unknown"

// NotRecognizedMessage is the neutral state shown for unknown component types.
const NotRecognizedMessage = "Component type not recognized"

const layoutName = "layout"

// TemplateName picks the template for a record: componentType first, then gender for birthday.
func TemplateName(content domain.WishContent) string {
	ct := domain.NormalizeComponentType(content.ComponentType)
	if !ct.IsKnown() {
		return NotRecognizedTemplate
	}
	if ct == domain.ComponentBirthday {
		switch domain.NormalizeGender(content.Gender) {
		case domain.GenderMale:
			return "birthday_male"
		case domain.GenderFemale:
			return "birthday_female"
		}
	}
	return string(ct)
}

// TemplateNames lists every page template, including gender variants and the fallback.
func TemplateNames() []string {
	names := []string{"birthday_male", "birthday_female", NotRecognizedTemplate}
	for _, ct := range domain.KnownComponentTypes() {
		names = append(names, string(ct))
	}
	return names
}

// Renderer is a gin HTMLRender holding one parsed template set per page.
type Renderer struct {
	templates map[string]*template.Template
}

var _ ginrender.HTMLRender = (*Renderer)(nil)

// New parses the embedded layout with every page template.
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, name := range TemplateNames() {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Instance implements render.HTMLRender. Unknown names fall back to the not-recognized page.
func (r *Renderer) Instance(name string, data any) ginrender.Render {
	t, ok := r.templates[name]
	if !ok {
		t = r.templates[NotRecognizedTemplate]
	}
	return ginrender.HTML{Template: t, Name: layoutName, Data: data}
}

var funcs = template.FuncMap{
	"first": func(items []string) string {
		if len(items) == 0 {
			return ""
		}
		return items[0]
	},
	"join": strings.Join,
}
