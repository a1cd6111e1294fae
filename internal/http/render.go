package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"salesboard/internal/core"
)

// page is what a route function produces: a status, an optional template
// name and the data to render.
type page struct {
	status   int
	template string
	data     any
}

func ok(data any) page { return page{status: http.StatusOK, data: data} }

func view(name string, data any) page {
	return page{status: http.StatusOK, template: name, data: data}
}

// Renderer writes a page to the response.
type Renderer interface {
	Render(w http.ResponseWriter, p page) error
	// Error writes a failure in the renderer's format.
	Error(w http.ResponseWriter, status int, msg string)
}

// JSONRenderer encodes page data as JSON.
type JSONRenderer struct{}

func (JSONRenderer) Render(w http.ResponseWriter, p page) error {
	body, err := json.Marshal(p.data)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	writeBody(w, p.status, "application/json", append(body, '\n'))
	return nil
}

func (JSONRenderer) Error(w http.ResponseWriter, status int, msg string) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	writeBody(w, status, "application/json", append(body, '\n'))
}

// TemplateRenderer executes named html/template templates. Output is
// buffered so a failing template never leaves a half-written page. A nil
// *TemplateRenderer fails every Render and still writes plain errors.
type TemplateRenderer struct {
	templates *template.Template
}

var errTemplatesNotLoaded = errors.New("templates not loaded")

var templateFuncs = template.FuncMap{
	"euros": core.FormatEuros,
	"label": func(c core.Category) string { return c.Label() },
}

// ParseTemplates loads every templates/*.html file from fsys.
func ParseTemplates(fsys fs.FS) (*TemplateRenderer, error) {
	t, err := template.New("").Funcs(templateFuncs).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &TemplateRenderer{templates: t}, nil
}

func (tr *TemplateRenderer) Render(w http.ResponseWriter, p page) error {
	if tr == nil {
		return errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := tr.templates.ExecuteTemplate(&buf, p.template, p.data); err != nil {
		return fmt.Errorf("execute template %s: %w", p.template, err)
	}
	writeBody(w, p.status, "text/html; charset=utf-8", buf.Bytes())
	return nil
}

func (tr *TemplateRenderer) Error(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

func writeBody(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
