package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultCollection  = "todos"
	countersCollection = "counters"
)

type counterDoc struct {
	Count int64 `firestore:"count"`
}

// Firestore stores todos as documents keyed by id. A counter document per
// collection is read and bumped in the same transaction as the insert, so
// concurrent appends from several processes still receive distinct ids.
type Firestore struct {
	client     *firestore.Client
	collection string
}

func NewFirestore(ctx context.Context, projectID string) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return NewFirestoreWithClient(client, defaultCollection), nil
}

func NewFirestoreWithClient(client *firestore.Client, collection string) *Firestore {
	return &Firestore{
		client:     client,
		collection: collection,
	}
}

func (fs *Firestore) Close() error {
	return fs.client.Close()
}

func (fs *Firestore) counterRef() *firestore.DocumentRef {
	return fs.client.Collection(countersCollection).Doc(fs.collection)
}

func (fs *Firestore) Append(ctx context.Context, text string) (Todo, error) {
	var todo Todo

	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		count, err := readCount(tx.Get(fs.counterRef()))
		if err != nil {
			return err
		}

		todo = Todo{
			ID:   count + 1,
			Text: text,
		}

		doc := fs.client.Collection(fs.collection).Doc(strconv.FormatInt(todo.ID, 10))
		if err := tx.Create(doc, todo); err != nil {
			return fmt.Errorf("failed to create todo: %w", err)
		}
		return tx.Set(fs.counterRef(), counterDoc{Count: todo.ID})
	})
	if err != nil {
		return Todo{}, fmt.Errorf("failed to append todo: %w", err)
	}

	return todo, nil
}

func (fs *Firestore) Snapshot(ctx context.Context) ([]Todo, error) {
	iter := fs.client.Collection(fs.collection).
		OrderBy("id", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	todos := make([]Todo, 0)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate todos: %w", err)
		}

		var todo Todo
		if err := doc.DataTo(&todo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal todo: %w", err)
		}
		todos = append(todos, todo)
	}

	return todos, nil
}

func (fs *Firestore) Len(ctx context.Context) (int, error) {
	count, err := readCount(fs.counterRef().Get(ctx))
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func readCount(snap *firestore.DocumentSnapshot, err error) (int64, error) {
	if status.Code(err) == codes.NotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read todo counter: %w", err)
	}

	var c counterDoc
	if err := snap.DataTo(&c); err != nil {
		return 0, fmt.Errorf("failed to unmarshal todo counter: %w", err)
	}
	return c.Count, nil
}
