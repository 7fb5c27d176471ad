// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"vidtube/internal/media"
)

// ErrMediaFailure is returned by FakeMediaStore for operations configured to fail.
var ErrMediaFailure = errors.New("media host unavailable")

// MediaCall records one operation seen by FakeMediaStore.
type MediaCall struct {
	Op           string
	StorageID    string
	ResourceType media.ResourceType
}

// FakeMediaStore is an in-memory media.Store. Stored assets are keyed by storage ID.
type FakeMediaStore struct {
	mu     sync.Mutex
	next   int
	Assets map[string]media.ResourceType
	Calls  []MediaCall

	// Duration is reported for every uploaded video.
	Duration float64
	// FailUpload makes Upload fail for matching resource types; FailDelete does the same for Delete.
	FailUpload map[media.ResourceType]bool
	FailDelete map[media.ResourceType]bool
	// FailUploadAfter makes uploads fail once that many have succeeded. Zero disables it.
	FailUploadAfter int
}

// NewFakeMediaStore returns an empty store.
func NewFakeMediaStore() *FakeMediaStore {
	return &FakeMediaStore{
		Assets:     make(map[string]media.ResourceType),
		FailUpload: make(map[media.ResourceType]bool),
		FailDelete: make(map[media.ResourceType]bool),
	}
}

// Upload stores a reference to in and returns a deterministic asset.
func (s *FakeMediaStore) Upload(_ context.Context, in media.UploadInput) (*media.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.Path == "" {
		return nil, media.ErrMissingFile
	}
	uploads := 0
	for _, c := range s.Calls {
		if c.Op == "upload" {
			uploads++
		}
	}
	if s.FailUpload[in.ResourceType] || (s.FailUploadAfter > 0 && uploads >= s.FailUploadAfter) {
		s.Calls = append(s.Calls, MediaCall{Op: "upload_failed", ResourceType: in.ResourceType})
		return nil, ErrMediaFailure
	}

	s.next++
	id := fmt.Sprintf("%ss/%d%s", in.ResourceType, s.next, filepath.Ext(in.Path))
	s.Assets[id] = in.ResourceType
	s.Calls = append(s.Calls, MediaCall{Op: "upload", StorageID: id, ResourceType: in.ResourceType})

	asset := &media.Asset{
		URL:          "https://media.test/" + id,
		StorageID:    id,
		ResourceType: in.ResourceType,
	}
	if in.ResourceType == media.ResourceVideo {
		asset.Duration = s.Duration
	}
	return asset, nil
}

// Delete forgets storageID.
func (s *FakeMediaStore) Delete(_ context.Context, storageID string, rt media.ResourceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDelete[rt] {
		s.Calls = append(s.Calls, MediaCall{Op: "delete_failed", StorageID: storageID, ResourceType: rt})
		return ErrMediaFailure
	}
	delete(s.Assets, storageID)
	s.Calls = append(s.Calls, MediaCall{Op: "delete", StorageID: storageID, ResourceType: rt})
	return nil
}

// Has reports whether storageID is currently stored.
func (s *FakeMediaStore) Has(storageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Assets[storageID]
	return ok
}

// Deleted returns the storage IDs passed to successful Delete calls, in order.
func (s *FakeMediaStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.Calls {
		if c.Op == "delete" {
			out = append(out, c.StorageID)
		}
	}
	return out
}

// Count returns the number of assets still stored.
func (s *FakeMediaStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Assets)
}
