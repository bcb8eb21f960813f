// Package cascade deletes a resource together with everything it owns,
// children first, so an interrupted run never leaves orphans whose parent
// is already gone. Run under store.Tx the whole cascade is atomic; without
// transaction support it is not, but re-running it finishes the job.
package cascade

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/rentity/internal/app/store"
)

// Result counts what a cascade removed.
type Result struct {
	Entities    int64
	Collections int64
}

// Collection removes a collection's entities, then the collection.
func Collection(ctx context.Context, b store.Backend, organizationID, collectionID string) (Result, error) {
	var res Result
	err := b.Tx.InTx(ctx, func(ctx context.Context) error {
		res = Result{}
		n, err := b.Entities.DeleteByCollection(ctx, organizationID, collectionID)
		if err != nil {
			return fmt.Errorf("delete entities: %w", err)
		}
		res.Entities = n

		if err := b.Collections.Delete(ctx, organizationID, collectionID); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
		res.Collections = 1
		return nil
	})
	return res, err
}

// Organization removes an organization's entities, its collections, then
// the organization record. A missing organization record at the last step
// is not an error when the caller already verified it existed; it means a
// concurrent delete finished first.
func Organization(ctx context.Context, b store.Backend, organizationID string) (Result, error) {
	var res Result
	err := b.Tx.InTx(ctx, func(ctx context.Context) error {
		res = Result{}
		n, err := b.Entities.DeleteByOrganization(ctx, organizationID)
		if err != nil {
			return fmt.Errorf("delete entities: %w", err)
		}
		res.Entities = n

		n, err = b.Collections.DeleteByOrganization(ctx, organizationID)
		if err != nil {
			return fmt.Errorf("delete collections: %w", err)
		}
		res.Collections = n

		if err := b.Orgs.Delete(ctx, organizationID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete organization: %w", err)
		}
		return nil
	})
	return res, err
}
