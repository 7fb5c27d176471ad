package service

import (
	"context"
	"strings"

	"vidtube/internal/media"
	"vidtube/internal/models"
)

// FileUpload is a locally staged file handed to a service by the upload middleware.
type FileUpload struct {
	Path        string
	ContentType string
}

func (f *FileUpload) hasPrefix(prefix string) bool {
	return f != nil && strings.HasPrefix(strings.ToLower(f.ContentType), prefix)
}

// uploadAsset pushes f to the media store and converts the result into a MediaAsset.
func uploadAsset(ctx context.Context, store media.Store, f *FileUpload, rt media.ResourceType) (models.MediaAsset, *media.Asset, error) {
	if f == nil || f.Path == "" {
		return models.MediaAsset{}, nil, media.ErrMissingFile
	}
	asset, err := store.Upload(ctx, media.UploadInput{Path: f.Path, ContentType: f.ContentType, ResourceType: rt})
	if err != nil {
		return models.MediaAsset{}, nil, err
	}
	return models.MediaAsset{URL: asset.URL, StorageID: asset.StorageID}, asset, nil
}

// deleteAsset removes a previously stored asset. Absent assets are ignored.
func deleteAsset(ctx context.Context, store media.Store, a models.MediaAsset, rt media.ResourceType) error {
	if a.StorageID == "" {
		return nil
	}
	return store.Delete(ctx, a.StorageID, rt)
}
