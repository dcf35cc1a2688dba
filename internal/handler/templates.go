package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"orNA": func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	},
}

// Page template names.
const (
	pageLogin    = "login.html"
	pageUsers    = "users.html"
	pageProducts = "products.html"
	pageError    = "error.html"
)

// pages holds one template set per page, each combining the layout with
// that page's "content" block.
var pages = mustParsePages(pageLogin, pageUsers, pageProducts, pageError)

func mustParsePages(names ...string) map[string]*template.Template {
	layout := template.Must(template.New("layout.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.html"))

	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t := template.Must(layout.Clone())
		out[name] = template.Must(t.ParseFS(templatesFS, "templates/"+name))
	}
	return out
}

// layoutData wraps a page's view model with the shell state.
type layoutData struct {
	Title         string
	Active        string
	Authenticated bool
	Content       any
}

type errorView struct {
	Heading string
	Message string
}

// render executes a page into a buffer first so a template failure never
// leaves a half-written page behind.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data layoutData) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	h.render(w, r, status, pageError, layoutData{
		Title:         heading,
		Authenticated: isAuthenticated(r),
		Content:       errorView{Heading: heading, Message: message},
	})
}
