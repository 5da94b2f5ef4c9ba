// Package views renders the server side pages with html/template.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"natours/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const layout = "templates/base.html"

// Renderer implements echo.Renderer. Every page is parsed together with the
// base layout and executed through it.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"monthYear": func(t time.Time) string {
		return t.Format("January 2006")
	},
	"firstName": func(u *model.User) string {
		if u == nil {
			return ""
		}
		return u.FirstName()
	},
	"price": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"rating": func(f float64) string {
		return fmt.Sprintf("%.1f", f)
	},
	"stars": func(rating int) []bool {
		out := make([]bool, 5)
		for i := range out {
			out[i] = i < rating
		}
		return out
	},
	"add": func(a, b int) int { return a + b },
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	return parse(templateFS)
}

func parse(fsys fs.FS) (*Renderer, error) {
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == layout {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(path.Base(layout)).Funcs(funcs).ParseFS(fsys, layout, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render executes the named page inside the layout.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, path.Base(layout), data)
}
