package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/penshort/adminboard/internal/model"
)

var errUpstream = errors.New("upstream unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAPI is an in-memory upstream with per-operation failure switches.
type fakeAPI struct {
	mu       sync.Mutex
	users    []model.User
	products []model.Product
	nextID   int

	usersErr  error
	listErr   error
	getErr    error
	addErr    error
	deleteErr error

	userCalls    int
	productCalls int
	getCalls     int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{users: sampleUsers(), products: sampleProducts(), nextID: 100}
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return append([]model.User(nil), f.users...), nil
}

func (f *fakeAPI) ListProducts(ctx context.Context) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Product(nil), f.products...), nil
}

func (f *fakeAPI) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, p := range f.products {
		if p.ID == id {
			p.Data = &model.ProductAttributes{Year: "2019", Price: "1849.99"}
			return &p, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeAPI) AddProduct(ctx context.Context, draft model.ProductDraft) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.nextID++
	p := draft.Product()
	p.ID = "ff" + strconv.Itoa(f.nextID)
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeAPI) DeleteProduct(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteErr
}
