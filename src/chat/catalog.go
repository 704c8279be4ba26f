package chat

import (
	"classrent/src/models"
	"classrent/src/models/scopes"
	"context"
	"fmt"

	"gorm.io/gorm"
)

type SpaceCatalog interface {
	ActiveSpaces(ctx context.Context, limit int) ([]models.Space, error)
}

type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) ActiveSpaces(ctx context.Context, limit int) ([]models.Space, error) {
	var spaces []models.Space
	q := c.db.WithContext(ctx).Scopes(scopes.ActiveSpaces).Order("name asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&spaces).Error; err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return spaces, nil
}
