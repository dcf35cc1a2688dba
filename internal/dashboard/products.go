package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/penshort/adminboard/internal/model"
)

// Banner texts shown by the Products view.
const (
	MsgProductsLoadFailed  = "Failed to load products"
	MsgProductLoadFailed   = "Failed to load product details"
	MsgProductAddFailed    = "Failed to add product"
	MsgProductDeleteFailed = "Failed to delete product"
	MsgNoProductsMatch     = "No products found matching your search."
	MsgNoProducts          = "No products available."
)

// ProductAPI is the slice of the API client the Products view needs.
type ProductAPI interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	AddProduct(ctx context.Context, draft model.ProductDraft) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type listState struct {
	loading bool
	items   []model.Product
}

type detailState struct {
	loading bool
	product *model.Product
}

type addState struct {
	open       bool
	submitting bool
	draft      model.ProductDraft
}

// ProductsView is the product catalogue. The initial list load, the detail
// fetch and the add form each keep their own state, so one in-flight call
// never masks another. Failures of any action land in a single banner.
type ProductsView struct {
	handle string
	api    ProductAPI
	logger *slog.Logger
	once   sync.Once

	mu     sync.Mutex
	list   listState
	detail detailState
	add    addState
	search string
	banner string
}

// NewProductsView creates an unloaded view. Call Load to fetch the list.
func NewProductsView(handle string, api ProductAPI, logger *slog.Logger) *ProductsView {
	return &ProductsView{handle: handle, api: api, logger: logger, list: listState{loading: true}}
}

// Handle identifies this mount of the view.
func (v *ProductsView) Handle() string {
	return v.handle
}

// Load fetches the product list. Only the first call per view does anything.
func (v *ProductsView) Load(ctx context.Context) {
	v.once.Do(func() {
		products, err := v.api.ListProducts(ctx)

		v.mu.Lock()
		defer v.mu.Unlock()
		v.list.loading = false
		if err != nil {
			v.logger.Error("error fetching products", slog.String("error", err.Error()))
			v.banner = MsgProductsLoadFailed
			return
		}
		v.list.items = products
	})
}

// SetSearch replaces the search string.
func (v *ProductsView) SetSearch(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = q
}

// ViewDetails fetches one product from the API, not from the local list, and
// opens the detail overlay. On failure only the banner changes.
func (v *ProductsView) ViewDetails(ctx context.Context, id string) error {
	v.mu.Lock()
	v.detail.loading = true
	v.mu.Unlock()

	product, err := v.api.GetProduct(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.detail.loading = false
	if err != nil {
		v.logger.Error("error fetching product", slog.String("product_id", id), slog.String("error", err.Error()))
		v.banner = MsgProductLoadFailed
		return err
	}
	v.detail.product = product
	return nil
}

// CloseDetails closes the detail overlay.
func (v *ProductsView) CloseDetails() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.detail.product = nil
}

// OpenAdd opens the add form with an empty draft.
func (v *ProductsView) OpenAdd() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.add = addState{open: true}
}

// SubmitAdd creates a product from draft. On success the returned record is
// appended and the form closes with an empty draft; on failure the form stays
// open with the draft intact.
func (v *ProductsView) SubmitAdd(ctx context.Context, draft model.ProductDraft) (*model.Product, error) {
	v.mu.Lock()
	v.add.open = true
	v.add.draft = draft
	v.add.submitting = true
	v.mu.Unlock()

	product, err := v.api.AddProduct(ctx, draft)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.add.submitting = false
	if err != nil {
		v.logger.Error("error adding product", slog.String("error", err.Error()))
		v.banner = MsgProductAddFailed
		return nil, err
	}
	v.list.items = append(v.list.items, *product)
	v.add = addState{}
	return product, nil
}

// CancelAdd closes the add form and discards the draft.
func (v *ProductsView) CancelAdd() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.add = addState{}
}

// Delete removes a product upstream, then locally by id. A failed delete
// leaves the list as it was.
func (v *ProductsView) Delete(ctx context.Context, id string) error {
	if err := v.api.DeleteProduct(ctx, id); err != nil {
		v.logger.Error("error deleting product", slog.String("product_id", id), slog.String("error", err.Error()))
		v.mu.Lock()
		v.banner = MsgProductDeleteFailed
		v.mu.Unlock()
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.list.items[:0:0]
	for _, p := range v.list.items {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	v.list.items = kept
	v.banner = ""
	return nil
}

// DismissBanner clears the banner. Nothing is retried.
func (v *ProductsView) DismissBanner() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.banner = ""
}

// ProductsPage is a consistent copy of the view for rendering.
type ProductsPage struct {
	Handle        string
	Search        string
	Products      []model.Product
	Total         int
	Loading       bool
	Banner        string
	Detail        *model.Product
	DetailLoading bool
	AddOpen       bool
	Submitting    bool
	Draft         model.ProductDraft
	Empty         string
}

// Page snapshots the view with the filter applied.
func (v *ProductsView) Page() ProductsPage {
	v.mu.Lock()
	defer v.mu.Unlock()

	page := ProductsPage{
		Handle:        v.handle,
		Search:        v.search,
		Products:      FilterProducts(v.list.items, v.search),
		Total:         len(v.list.items),
		Loading:       v.list.loading,
		Banner:        v.banner,
		Detail:        v.detail.product,
		DetailLoading: v.detail.loading,
		AddOpen:       v.add.open,
		Submitting:    v.add.submitting,
		Draft:         v.add.draft,
	}
	if len(page.Products) == 0 {
		page.Empty = MsgNoProducts
		if v.search != "" {
			page.Empty = MsgNoProductsMatch
		}
	}
	return page
}
