package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/penshort/adminboard/internal/dashboard"
	"github.com/penshort/adminboard/internal/handler/dto"
	"github.com/penshort/adminboard/internal/model"
)

// Products renders the product catalogue.
// GET /products?v=&q=
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	query := dto.ParseViewQuery(r.URL.Query())
	view := h.productsView(r, query)
	view.CloseDetails()
	h.renderProducts(w, r, view)
}

// ProductDetail fetches one product and shows it in the detail overlay.
// A failed fetch shows the banner instead.
// GET /products/{id}?v=
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	view := h.productsView(r, dto.ParseViewQuery(r.URL.Query()))
	_ = view.ViewDetails(r.Context(), chi.URLParam(r, "id"))
	h.renderProducts(w, r, view)
}

// NewProduct opens the add-product form.
// GET /products/new?v=
func (h *Handler) NewProduct(w http.ResponseWriter, r *http.Request) {
	view := h.productsView(r, dto.ParseViewQuery(r.URL.Query()))
	view.CloseDetails()
	view.OpenAdd()
	h.renderProducts(w, r, view)
}

// CreateProduct submits the add-product form.
// POST /products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	draft, err := dto.ParseProductForm(r)
	if err != nil {
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return
	}
	view, ok := h.postedProductsView(w, r)
	if !ok {
		return
	}

	if product, err := view.SubmitAdd(r.Context(), draft); err == nil {
		h.metrics.IncProductCreated()
		h.recordActivity(r, model.ActionProductCreated, product.ID, "products")
	}
	redirectToProducts(w, r, view)
}

// CancelProduct closes the add-product form and discards the draft.
// POST /products/cancel
func (h *Handler) CancelProduct(w http.ResponseWriter, r *http.Request) {
	view, ok := h.postedProductsView(w, r)
	if !ok {
		return
	}
	view.CancelAdd()
	redirectToProducts(w, r, view)
}

// DeleteProduct deletes a product upstream and from the list.
// POST /products/{id}/delete
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	view, ok := h.postedProductsView(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := view.Delete(r.Context(), id); err == nil {
		h.metrics.IncProductDeleted()
		h.recordActivity(r, model.ActionProductDeleted, id, "products")
	}
	redirectToProducts(w, r, view)
}

// DismissBanner clears the error banner.
// POST /products/banner/dismiss
func (h *Handler) DismissBanner(w http.ResponseWriter, r *http.Request) {
	view, ok := h.postedProductsView(w, r)
	if !ok {
		return
	}
	view.DismissBanner()
	redirectToProducts(w, r, view)
}

// productsView returns the mounted Products view named by the query,
// mounting a fresh one when the handle is missing or stale.
func (h *Handler) productsView(r *http.Request, query dto.ViewQuery) *dashboard.ProductsView {
	ws := h.workspace(r)
	view := ws.Products(query.Handle)
	if view == nil {
		view = ws.MountProducts(r.Context())
	}
	if query.Search != nil {
		view.SetSearch(*query.Search)
	}
	return view
}

// postedProductsView resolves the view an action form was posted from. Actions
// against a view that is no longer mounted are dropped and the browser is sent
// to a fresh mount.
func (h *Handler) postedProductsView(w http.ResponseWriter, r *http.Request) (*dashboard.ProductsView, bool) {
	handle, err := dto.ParseViewHandle(r)
	if err != nil {
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return nil, false
	}
	view := h.workspace(r).Products(handle)
	if view == nil {
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return nil, false
	}
	return view, true
}

func (h *Handler) renderProducts(w http.ResponseWriter, r *http.Request, view *dashboard.ProductsView) {
	h.render(w, r, http.StatusOK, pageProducts, layoutData{
		Title:         "Products",
		Active:        "products",
		Authenticated: true,
		Content:       view.Page(),
	})
}

func redirectToProducts(w http.ResponseWriter, r *http.Request, view *dashboard.ProductsView) {
	http.Redirect(w, r, "/products?"+url.Values{dto.FieldView: {view.Handle()}}.Encode(), http.StatusSeeOther)
}
