// Package dto decodes the HTML forms and query strings the dashboard accepts.
package dto

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/penshort/adminboard/internal/model"
)

// Form and query field names.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldView         = "v"
	FieldSearch       = "q"
	FieldSelected     = "selected"
	FieldName         = "name"
	FieldYear         = "year"
	FieldPrice        = "price"
	FieldCPUModel     = "cpu_model"
	FieldHardDiskSize = "hard_disk_size"
	FieldLimit        = "limit"
)

// LoginForm is the posted login form. Values are kept verbatim.
type LoginForm struct {
	Email    string
	Password string
}

// ParseLoginForm reads the login form from r.
func ParseLoginForm(r *http.Request) (LoginForm, error) {
	if err := r.ParseForm(); err != nil {
		return LoginForm{}, err
	}
	return LoginForm{
		Email:    r.PostForm.Get(FieldEmail),
		Password: r.PostForm.Get(FieldPassword),
	}, nil
}

// ViewQuery is the view state carried in page URLs.
type ViewQuery struct {
	// Handle names the mounted view; empty or stale means mount a new one.
	Handle string
	// Search is nil when the URL does not mention the search field, so the
	// current search is kept.
	Search   *string
	Selected string
}

// ParseViewQuery reads the view handle, search and selection from a URL.
func ParseViewQuery(values url.Values) ViewQuery {
	q := ViewQuery{
		Handle:   strings.TrimSpace(values.Get(FieldView)),
		Selected: strings.TrimSpace(values.Get(FieldSelected)),
	}
	if values.Has(FieldSearch) {
		search := values.Get(FieldSearch)
		q.Search = &search
	}
	return q
}

// ParseViewHandle reads the view handle from a posted form.
func ParseViewHandle(r *http.Request) (string, error) {
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.PostForm.Get(FieldView)), nil
}

// ParseProductForm reads the add-product form. Values are sent upstream as
// typed; nothing is validated locally.
func ParseProductForm(r *http.Request) (model.ProductDraft, error) {
	if err := r.ParseForm(); err != nil {
		return model.ProductDraft{}, err
	}
	return model.ProductDraft{
		Name:         r.PostForm.Get(FieldName),
		Year:         r.PostForm.Get(FieldYear),
		Price:        r.PostForm.Get(FieldPrice),
		CPUModel:     r.PostForm.Get(FieldCPUModel),
		HardDiskSize: r.PostForm.Get(FieldHardDiskSize),
	}, nil
}

// ActivityListResponse is the body of GET /api/activity.
type ActivityListResponse struct {
	Data []model.ActivityEvent `json:"data"`
}

// ErrorResponse represents a JSON API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
