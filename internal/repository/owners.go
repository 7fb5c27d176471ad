package repository

import (
	"context"

	"vidtube/internal/models"

	"gorm.io/gorm"
)

// loadOwners fetches the reduced owner profile for every distinct id.
func loadOwners(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]*models.OwnerSummary, error) {
	owners := make(map[uint]*models.OwnerSummary, len(ids))
	if len(ids) == 0 {
		return owners, nil
	}

	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	var rows []models.OwnerSummary
	if err := db.WithContext(ctx).Select(models.OwnerColumns).Where("id IN ?", unique).Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range rows {
		owners[rows[i].ID] = &rows[i]
	}
	return owners, nil
}

func attachVideoOwners(ctx context.Context, db *gorm.DB, videos []models.Video) error {
	ids := make([]uint, len(videos))
	for i := range videos {
		ids[i] = videos[i].OwnerID
	}
	owners, err := loadOwners(ctx, db, ids)
	if err != nil {
		return err
	}
	for i := range videos {
		videos[i].Owner = owners[videos[i].OwnerID]
	}
	return nil
}

func attachCommentOwners(ctx context.Context, db *gorm.DB, comments []models.Comment) error {
	ids := make([]uint, len(comments))
	for i := range comments {
		ids[i] = comments[i].OwnerID
	}
	owners, err := loadOwners(ctx, db, ids)
	if err != nil {
		return err
	}
	for i := range comments {
		comments[i].Owner = owners[comments[i].OwnerID]
	}
	return nil
}
