package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// DefaultUsersCollection is the root collection holding per-user token subcollections.
const DefaultUsersCollection = "users"

// TokenStore implements dispatch.TokenStore on users/{userID}/tokens/{token}.
// The token string is its own document ID.
type TokenStore struct {
	client *firestore.Client
	users  string
}

func NewTokenStore(client *firestore.Client, usersCollection string) *TokenStore {
	if usersCollection == "" {
		usersCollection = DefaultUsersCollection
	}
	return &TokenStore{client: client, users: usersCollection}
}

// tokenRecord is the internal DB representation.
type tokenRecord struct {
	Token     string    `firestore:"token"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (s *TokenStore) Tokens(ctx context.Context, userID string) ([]string, error) {
	iter := s.tokensCollection(userID).Documents(ctx)
	defer iter.Stop()

	tokens := make([]string, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}

		var record tokenRecord
		if err := doc.DataTo(&record); err != nil || record.Token == "" {
			// Registrations that predate the token field only carry the ID.
			tokens = append(tokens, doc.Ref.ID)
			continue
		}
		tokens = append(tokens, record.Token)
	}
	return tokens, nil
}

// DeleteTokens removes all tokens in a single transaction.
func (s *TokenStore) DeleteTokens(ctx context.Context, userID string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, token := range tokens {
			if err := tx.Delete(s.tokensCollection(userID).Doc(token)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TokenStore) RegisterToken(ctx context.Context, userID string, token string) error {
	record := tokenRecord{
		Token:     token,
		UpdatedAt: time.Now(),
	}
	_, err := s.tokensCollection(userID).Doc(token).Set(ctx, record)
	return err
}

// tokensCollection: users/{userID}/tokens
func (s *TokenStore) tokensCollection(userID string) *firestore.CollectionRef {
	return s.client.Collection(s.users).Doc(userID).Collection("tokens")
}
