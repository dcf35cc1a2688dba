// Package dashboard holds the state of the Users and Products views and the
// per-browser workspace that owns them. Nothing here renders; handlers take
// page snapshots and feed them to templates.
package dashboard

import (
	"strings"

	"github.com/penshort/adminboard/internal/model"
)

// FilterUsers keeps users whose name, email or city contains query, ignoring
// case. An empty query returns every user. The input is never modified.
func FilterUsers(users []model.User, query string) []model.User {
	needle := strings.ToLower(query)
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if needle == "" ||
			strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle) ||
			strings.Contains(strings.ToLower(u.Address.City), needle) {
			out = append(out, u)
		}
	}
	return out
}

// FilterProducts keeps products whose name contains query, ignoring case.
func FilterProducts(products []model.Product, query string) []model.Product {
	needle := strings.ToLower(query)
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}
