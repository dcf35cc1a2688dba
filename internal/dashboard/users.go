package dashboard

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/penshort/adminboard/internal/model"
)

// Banner texts shown by the Users view.
const (
	MsgUsersLoadFailed = "Failed to load users"
	MsgNoUsersMatch    = "No users found matching your search."
	MsgNoUsers         = "No users available."
)

// UserLister is the slice of the API client the Users view needs.
type UserLister interface {
	ListUsers(ctx context.Context) ([]model.User, error)
}

// UsersView is the read-only user directory: one load per mount, a search
// string and an optional selected user shown in a detail overlay.
type UsersView struct {
	handle string
	api    UserLister
	logger *slog.Logger
	once   sync.Once

	mu       sync.Mutex
	users    []model.User
	search   string
	selected *model.User
	loading  bool
	err      string
}

// NewUsersView creates an unloaded view. Call Load to fetch the list.
func NewUsersView(handle string, api UserLister, logger *slog.Logger) *UsersView {
	return &UsersView{handle: handle, api: api, logger: logger, loading: true}
}

// Handle identifies this mount of the view.
func (v *UsersView) Handle() string {
	return v.handle
}

// Load fetches the user list. Only the first call per view does anything.
func (v *UsersView) Load(ctx context.Context) {
	v.once.Do(func() {
		users, err := v.api.ListUsers(ctx)

		v.mu.Lock()
		defer v.mu.Unlock()
		v.loading = false
		if err != nil {
			v.logger.Error("error fetching users", slog.String("error", err.Error()))
			v.err = MsgUsersLoadFailed
			v.users = nil
			return
		}
		v.users = users
	})
}

// SetSearch replaces the search string.
func (v *UsersView) SetSearch(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = q
}

// Select opens the detail overlay for the user with id, taken from the
// fetched list. Unknown ids leave the selection unchanged.
func (v *UsersView) Select(id string) bool {
	n, err := strconv.Atoi(id)
	if err != nil {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.users {
		if v.users[i].ID == n {
			u := v.users[i]
			v.selected = &u
			return true
		}
	}
	return false
}

// CloseDetail clears the selection.
func (v *UsersView) CloseDetail() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = nil
}

// UsersPage is a consistent copy of the view for rendering.
type UsersPage struct {
	Handle   string
	Search   string
	Users    []model.User
	Total    int
	Selected *model.User
	Loading  bool
	Error    string
	Empty    string
}

// Page snapshots the view with the filter applied.
func (v *UsersView) Page() UsersPage {
	v.mu.Lock()
	defer v.mu.Unlock()

	page := UsersPage{
		Handle:   v.handle,
		Search:   v.search,
		Users:    FilterUsers(v.users, v.search),
		Total:    len(v.users),
		Selected: v.selected,
		Loading:  v.loading,
		Error:    v.err,
	}
	if len(page.Users) == 0 {
		page.Empty = MsgNoUsers
		if v.search != "" {
			page.Empty = MsgNoUsersMatch
		}
	}
	return page
}
