package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// API is everything the views need from the upstream client.
type API interface {
	UserLister
	ProductAPI
}

// Workspace holds the single mounted view of one browser. Mounting a view
// discards the previous one, so each visit to a page starts from a fresh load.
type Workspace struct {
	api    API
	logger *slog.Logger

	mu       sync.Mutex
	users    *UsersView
	products *ProductsView
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(api API, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{api: api, logger: logger}
}

// MountUsers replaces the mounted view with a fresh Users view and loads it.
func (w *Workspace) MountUsers(ctx context.Context) *UsersView {
	v := NewUsersView(ulid.Make().String(), w.api, w.logger)

	w.mu.Lock()
	w.users, w.products = v, nil
	w.mu.Unlock()

	v.Load(ctx)
	return v
}

// MountProducts replaces the mounted view with a fresh Products view and loads it.
func (w *Workspace) MountProducts(ctx context.Context) *ProductsView {
	v := NewProductsView(ulid.Make().String(), w.api, w.logger)

	w.mu.Lock()
	w.users, w.products = nil, v
	w.mu.Unlock()

	v.Load(ctx)
	return v
}

// Users returns the mounted Users view if its handle matches, else nil.
func (w *Workspace) Users(handle string) *UsersView {
	w.mu.Lock()
	defer w.mu.Unlock()
	if handle == "" || w.users == nil || w.users.Handle() != handle {
		return nil
	}
	return w.users
}

// Products returns the mounted Products view if its handle matches, else nil.
func (w *Workspace) Products(handle string) *ProductsView {
	w.mu.Lock()
	defer w.mu.Unlock()
	if handle == "" || w.products == nil || w.products.Handle() != handle {
		return nil
	}
	return w.products
}

// Teardown unmounts whatever view is mounted.
func (w *Workspace) Teardown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.users, w.products = nil, nil
}

// Registry maps browser ids to workspaces.
type Registry struct {
	logger *slog.Logger

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger, workspaces: make(map[string]*Workspace)}
}

// Get returns the workspace of browserID, creating it around api on first use.
// api is ignored for an existing workspace.
func (r *Registry) Get(browserID string, api API) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.workspaces[browserID]; ok {
		return ws
	}
	ws := NewWorkspace(api, r.logger.With(slog.String("browser_id", browserID)))
	r.workspaces[browserID] = ws
	return ws
}

// Drop tears down and forgets the workspace of browserID.
func (r *Registry) Drop(browserID string) {
	r.mu.Lock()
	ws, ok := r.workspaces[browserID]
	delete(r.workspaces, browserID)
	r.mu.Unlock()

	if ok {
		ws.Teardown()
	}
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}
