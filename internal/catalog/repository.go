package catalog

import (
	"context"

	"github.com/angelmondragon/suuq-marketplace/pkg/blob"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
)

// Repository is the single mutation path for the product catalog. Every write
// persists the whole list under the products blob.
type Repository struct {
	store  blob.Store
	locker *blob.Locker
}

// NewRepository binds the catalog to a blob store.
func NewRepository(store blob.Store, locker *blob.Locker) (*Repository, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blob store is required")
	}
	if locker == nil {
		locker = blob.NewLocker()
	}
	return &Repository{store: store, locker: locker}, nil
}

// List returns every product, falling back to the seed catalog when nothing
// has been persisted yet.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	var products []Product
	found, err := blob.GetJSON(ctx, r.store, blob.KeyProducts, &products)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	if !found {
		return SeedProducts(), nil
	}
	return products, nil
}

// Get returns the product with id.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

// Add assigns the next id to product and appends it.
func (r *Repository) Add(ctx context.Context, product Product) (Product, error) {
	err := r.Mutate(ctx, func(products []Product) ([]Product, error) {
		product.ID = nextID(products)
		return append(products, product), nil
	})
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

// Update applies fn to the product with id and persists the result.
func (r *Repository) Update(ctx context.Context, id int64, fn func(*Product) error) (Product, error) {
	var updated Product
	err := r.Mutate(ctx, func(products []Product) ([]Product, error) {
		for i := range products {
			if products[i].ID != id {
				continue
			}
			if err := fn(&products[i]); err != nil {
				return nil, err
			}
			products[i].ID = id
			updated = products[i]
			return products, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// Delete removes the product with id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.Mutate(ctx, func(products []Product) ([]Product, error) {
		for i := range products {
			if products[i].ID == id {
				return append(products[:i], products[i+1:]...), nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	})
}

// Mutate runs fn over the full product list under the catalog lock and saves
// what it returns. Nothing is written when fn fails.
func (r *Repository) Mutate(ctx context.Context, fn func([]Product) ([]Product, error)) error {
	unlock := r.locker.Lock(blob.KeyProducts)
	defer unlock()

	products, err := r.List(ctx)
	if err != nil {
		return err
	}
	next, err := fn(products)
	if err != nil {
		return err
	}
	if next == nil {
		next = []Product{}
	}
	if err := blob.PutJSON(ctx, r.store, blob.KeyProducts, next); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save products")
	}
	return nil
}

func nextID(products []Product) int64 {
	var max int64
	for _, p := range products {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}
