package orders

import (
	"context"

	"github.com/angelmondragon/suuq-marketplace/pkg/blob"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
)

// Key is the blob key holding a session's order history.
func Key(sessionID string) string {
	return blob.SessionKey(sessionID, blob.KeyUserOrders)
}

// Load reads the session's order history in insertion order.
func Load(ctx context.Context, store blob.Store, sessionID string) ([]Order, error) {
	var history []Order
	found, err := blob.GetJSON(ctx, store, Key(sessionID), &history)
	if err != nil {
		return nil, err
	}
	if !found || history == nil {
		return []Order{}, nil
	}
	return history, nil
}

// Save replaces the session's order history.
func Save(ctx context.Context, store blob.Store, sessionID string, history []Order) error {
	if history == nil {
		history = []Order{}
	}
	return blob.PutJSON(ctx, store, Key(sessionID), history)
}

// Append adds order to the end of the history held in store.
func Append(ctx context.Context, store blob.Store, sessionID string, order Order) error {
	history, err := Load(ctx, store, sessionID)
	if err != nil {
		return err
	}
	return Save(ctx, store, sessionID, append(history, order))
}

// Repository guards read-modify-write cycles on the order history.
type Repository struct {
	store  blob.Store
	locker *blob.Locker
}

func NewRepository(store blob.Store, locker *blob.Locker) (*Repository, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blob store is required")
	}
	if locker == nil {
		locker = blob.NewLocker()
	}
	return &Repository{store: store, locker: locker}, nil
}

func (r *Repository) List(ctx context.Context, sessionID string) ([]Order, error) {
	history, err := Load(ctx, r.store, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}
	return history, nil
}

func (r *Repository) Get(ctx context.Context, sessionID, orderID string) (Order, error) {
	history, err := r.List(ctx, sessionID)
	if err != nil {
		return Order{}, err
	}
	for _, o := range history {
		if o.ID == orderID {
			return o, nil
		}
	}
	return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

// Update applies fn to a single order under the session's history lock.
// Nothing is written when fn fails.
func (r *Repository) Update(ctx context.Context, sessionID, orderID string, fn func(*Order) error) (Order, error) {
	unlock := r.locker.Lock(Key(sessionID))
	defer unlock()

	history, err := r.List(ctx, sessionID)
	if err != nil {
		return Order{}, err
	}
	for i := range history {
		if history[i].ID != orderID {
			continue
		}
		if err := fn(&history[i]); err != nil {
			return Order{}, err
		}
		if err := Save(ctx, r.store, sessionID, history); err != nil {
			return Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save orders")
		}
		return history[i], nil
	}
	return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}
