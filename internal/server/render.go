package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"

	"postline/internal/models"
	"postline/internal/pagination"
	"postline/internal/service"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates
var templateFS embed.FS

// PageData is what every page template receives. Page-specific fields are
// left zero when unused.
type PageData struct {
	Title       string
	Path        string
	Year        int
	CurrentUser *models.User

	// Form state for re-rendering submissions
	Form   map[string]string
	Errors map[string]string
	Next   string
	IsEdit bool

	Posts   []models.Post
	Page    *pagination.Page
	Group   *models.Group
	Groups  []models.Group
	Profile *service.Profile
	Detail  *service.PostDetail
	Post    *models.Post
}

// FieldError returns the error recorded for field, if any.
func (d *PageData) FieldError(field string) string {
	return d.Errors[field]
}

// NonFieldError is the form-wide message, e.g. bad credentials.
func (d *PageData) NonFieldError() string {
	return d.Errors[service.NonFieldErrorsKey]
}

// Value returns the submitted value of field, if any.
func (d *PageData) Value(field string) string {
	return d.Form[field]
}

// formField is one labelled input with its submitted value and error.
type formField struct {
	Name  string
	Label string
	Type  string
	Value string
	Error string
}

// Renderer executes the embedded templates. Each page is parsed once on top
// of the shared layout and partials.
type Renderer struct {
	pages map[string]*template.Template
}

func templateFuncs(mediaURL string) template.FuncMap {
	return template.FuncMap{
		"media": func(name string) string {
			if name == "" {
				return ""
			}
			return mediaURL + name
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"excerpt": func(p models.Post, n int) string {
			return p.Excerpt(n)
		},
		"linebreaks": linebreaks,
		"selected": func(value string, id uint) bool {
			return value == strconv.FormatUint(uint64(id), 10)
		},
		"field": func(d *PageData, name, label, typ string) formField {
			return formField{Name: name, Label: label, Type: typ, Value: d.Value(name), Error: d.FieldError(name)}
		},
		"pageURL": func(n int) string {
			return fmt.Sprintf("?page=%d", n)
		},
	}
}

// linebreaks escapes text and turns newlines into <br>.
func linebreaks(text string) template.HTML {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = template.HTMLEscapeString(line)
	}
	return template.HTML(strings.Join(lines, "<br>"))
}

// NewRenderer parses every page under templates/ with the base layout and the
// includes/ partials.
func NewRenderer(mediaURL string) (*Renderer, error) {
	shared, err := template.New("").Funcs(templateFuncs(mediaURL)).
		ParseFS(templateFS, "templates/base.html", "templates/includes/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range files {
		if strings.HasPrefix(file, "templates/includes/") {
			continue
		}
		t, err := shared.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), path.Ext(file))
		r.pages[name] = t
	}
	return r, nil
}

// Render executes page into w.
func (r *Renderer) Render(w io.Writer, page string, data *PageData) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// render fills the shared page context and writes the page with status.
// Output is buffered so a failing template never sends a partial page.
func (s *Server) render(c *fiber.Ctx, status int, page string, data *PageData) error {
	if data == nil {
		data = &PageData{}
	}
	data.Path = c.Path()
	data.Year = time.Now().Year()
	if data.CurrentUser == nil {
		data.CurrentUser = s.currentUser(c)
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, page, data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
