// Package firestore implements the relay stores on Google Cloud Firestore.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

// DefaultNotificationsCollection is the collection producers write records into.
const DefaultNotificationsCollection = "notifications"

// maxWritesPerCommit is the Firestore limit on writes in one commit.
const maxWritesPerCommit = 500

// RecordStore implements dispatch.RecordStore.
type RecordStore struct {
	client     *firestore.Client
	collection string
}

func NewRecordStore(client *firestore.Client, collection string) *RecordStore {
	if collection == "" {
		collection = DefaultNotificationsCollection
	}
	return &RecordStore{client: client, collection: collection}
}

func (s *RecordStore) Get(ctx context.Context, id string) (*notification.Record, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", dispatch.ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("failed to read notification %s: %w", id, err)
	}

	var rec notification.Record
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode notification %s: %w", id, err)
	}
	return &rec, nil
}

// MarkSent updates the record in place; fields not named by the completion are left alone.
func (s *RecordStore) MarkSent(ctx context.Context, id string, c dispatch.Completion) error {
	updates := []firestore.Update{{Path: "sent", Value: true}}
	if c.Delivered {
		updates = append(updates,
			firestore.Update{Path: "sentAt", Value: firestore.ServerTimestamp},
			firestore.Update{Path: "successCount", Value: c.SuccessCount},
			firestore.Update{Path: "failureCount", Value: c.FailureCount},
		)
	}
	if c.Error != "" {
		updates = append(updates, firestore.Update{Path: "error", Value: c.Error})
	}

	if _, err := s.client.Collection(s.collection).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update notification %s: %w", id, err)
	}
	return nil
}

func (s *RecordStore) StaleIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	iter := s.client.Collection(s.collection).
		Where("createdAt", "<", cutoff).
		Select().
		Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

// DeleteRecords deletes in transactions of at most maxWritesPerCommit documents.
// Each chunk is atomic; a failure stops before later chunks are attempted.
func (s *RecordStore) DeleteRecords(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += maxWritesPerCommit {
		end := min(start+maxWritesPerCommit, len(ids))
		chunk := ids[start:end]

		err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			for _, id := range chunk {
				if err := tx.Delete(s.client.Collection(s.collection).Doc(id)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to delete notifications %d..%d: %w", start, end, err)
		}
	}
	return nil
}
