package cart

import (
	"context"

	"github.com/angelmondragon/suuq-marketplace/pkg/blob"
)

// Key is the blob key holding the session's ledger.
func Key(sessionID string) string {
	return blob.SessionKey(sessionID, blob.KeyCart)
}

// Load reads the session ledger; a missing blob is an empty cart.
func Load(ctx context.Context, store blob.Store, sessionID string) (Ledger, error) {
	var ledger Ledger
	found, err := blob.GetJSON(ctx, store, Key(sessionID), &ledger)
	if err != nil {
		return nil, err
	}
	if !found || ledger == nil {
		return Ledger{}, nil
	}
	return ledger, nil
}

// Save persists the full ledger.
func Save(ctx context.Context, store blob.Store, sessionID string, ledger Ledger) error {
	if ledger == nil {
		ledger = Ledger{}
	}
	return blob.PutJSON(ctx, store, Key(sessionID), ledger)
}
