// Package media uploads and removes binary assets on the external media host.
package media

import (
	"context"
	"errors"
)

// ResourceType tells the media host how to treat an asset.
type ResourceType string

const (
	ResourceImage ResourceType = "image"
	ResourceVideo ResourceType = "video"
)

// ErrMissingFile is returned when an upload is requested without a local file.
var ErrMissingFile = errors.New("media: no local file to upload")

// UploadInput describes a locally staged file to push to the media host.
type UploadInput struct {
	Path         string
	ContentType  string
	ResourceType ResourceType
}

// Asset is the media host's answer to a successful upload.
type Asset struct {
	URL          string
	StorageID    string
	ResourceType ResourceType
	// Duration in seconds; only reported for video assets.
	Duration float64
}

// Store is the media host as seen by the services.
type Store interface {
	Upload(ctx context.Context, in UploadInput) (*Asset, error)
	Delete(ctx context.Context, storageID string, resourceType ResourceType) error
}
