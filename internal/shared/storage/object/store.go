package object

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when no object exists under the requested key.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving binary objects.
// Keys are chosen by the caller; the progress and result layout
// ("{user_id}/{document_id}/status.json") depends on keys being stable.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// SaveJSON marshals v and stores it under key.
func SaveJSON(ctx context.Context, store ObjectStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("save json key=%s: marshal: %w", key, err)
	}
	if err := store.Put(ctx, key, "application/json", bytes.NewReader(data)); err != nil {
		return fmt.Errorf("save json key=%s: %w", key, err)
	}
	return nil
}

// GetJSON loads the object under key and unmarshals it into v.
// Returns ErrNotFound when the key does not exist.
func GetJSON(ctx context.Context, store ObjectStore, key string, v any) error {
	body, err := store.Open(ctx, key)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("get json key=%s: read: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("get json key=%s: unmarshal: %w", key, err)
	}
	return nil
}
