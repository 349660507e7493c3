// Package firestorestore backs the store contract with Cloud Firestore,
// whose transactions already provide the optimistic, snapshot-isolated
// semantics the engine requires.
package firestorestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"beckon/internal/store"
)

type Store struct {
	client *firestore.Client
}

// New connects through the Firebase admin SDK so the store shares
// credentials with messaging and auth.
func New(ctx context.Context, projectID, serviceAccountPath string) (*Store, error) {
	var opts []option.ClientOption
	if serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: init app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: init client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Get(ctx context.Context, collection, id string) (store.Snapshot, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	return wrapSnapshot(snap, err)
}

func (s *Store) Query(ctx context.Context, collection string, filters ...store.Filter) ([]store.Snapshot, error) {
	return drain(s.buildQuery(collection, filters).Documents(ctx))
}

func (s *Store) NewID(collection string) string {
	return s.client.Collection(collection).NewDoc().ID
}

func (s *Store) RunTransaction(ctx context.Context, body func(tx store.Tx) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		return body(&transaction{s: s, ftx: ftx})
	})
}

func (s *Store) buildQuery(collection string, filters []store.Filter) firestore.Query {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, f.Op, f.Value)
	}
	return q
}

type transaction struct {
	s   *Store
	ftx *firestore.Transaction
}

func (t *transaction) Get(collection, id string) (store.Snapshot, error) {
	snap, err := t.ftx.Get(t.s.client.Collection(collection).Doc(id))
	return wrapSnapshot(snap, err)
}

func (t *transaction) Query(collection string, filters ...store.Filter) ([]store.Snapshot, error) {
	return drain(t.ftx.Documents(t.s.buildQuery(collection, filters)))
}

func (t *transaction) Set(collection, id string, data map[string]interface{}) error {
	return t.ftx.Set(t.s.client.Collection(collection).Doc(id), translate(data))
}

func (t *transaction) Merge(collection, id string, data map[string]interface{}) error {
	return t.ftx.Set(t.s.client.Collection(collection).Doc(id), translate(data), firestore.MergeAll)
}

func (t *transaction) Update(collection, id string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for f, v := range translate(fields) {
		updates = append(updates, firestore.Update{Path: f, Value: v})
	}
	return t.ftx.Update(t.s.client.Collection(collection).Doc(id), updates)
}

// translate swaps the contract's write sentinels for Firestore's own.
func translate(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch {
		case store.IsServerTimestamp(v):
			out[k] = firestore.ServerTimestamp
		default:
			if elems, ok := store.ArrayUnionElems(v); ok {
				out[k] = firestore.ArrayUnion(elems...)
			} else {
				out[k] = v
			}
		}
	}
	return out
}

func drain(it *firestore.DocumentIterator) ([]store.Snapshot, error) {
	defer it.Stop()
	var out []store.Snapshot
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, &snapshot{snap: snap})
	}
}

func wrapSnapshot(snap *firestore.DocumentSnapshot, err error) (store.Snapshot, error) {
	if err != nil {
		// a NotFound read still yields a usable snapshot with Exists false
		if snap != nil && !snap.Exists() {
			return &snapshot{snap: snap}, nil
		}
		return nil, err
	}
	return &snapshot{snap: snap}, nil
}

type snapshot struct {
	snap *firestore.DocumentSnapshot
}

func (s *snapshot) Exists() bool { return s.snap.Exists() }

func (s *snapshot) ID() string { return s.snap.Ref.ID }

func (s *snapshot) DataTo(v interface{}) error { return s.snap.DataTo(v) }
