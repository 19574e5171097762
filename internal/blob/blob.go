// Package blob deletes stored photos and signs direct client uploads.
package blob

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotConfigured is returned by signing when no blob backend is set up.
var ErrNotConfigured = errors.New("blob storage not configured")

// Store is the narrow blob interface the catalog needs.
type Store interface {
	// Delete removes the object behind a photo URL. Unknown URLs are not an error.
	Delete(ctx context.Context, photoURL string) error
	SignUpload(folder string, at time.Time) (Upload, error)
}

// Upload carries the fields a client posts alongside the file.
type Upload struct {
	URL       string `json:"uploadURL"`
	APIKey    string `json:"apiKey"`
	Folder    string `json:"folder"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

// Noop is used when no blob backend is configured; it records deletions so
// tests can assert on them.
type Noop struct {
	mu      sync.Mutex
	deleted []string

	// Fail injects an error for specific URLs. Set it before use.
	Fail map[string]error
}

func (n *Noop) Delete(_ context.Context, photoURL string) error {
	if err, ok := n.Fail[photoURL]; ok {
		return err
	}
	n.mu.Lock()
	n.deleted = append(n.deleted, photoURL)
	n.mu.Unlock()
	return nil
}

// Deleted returns the URLs deleted so far.
func (n *Noop) Deleted() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.deleted...)
}

func (n *Noop) SignUpload(string, time.Time) (Upload, error) {
	return Upload{}, ErrNotConfigured
}
