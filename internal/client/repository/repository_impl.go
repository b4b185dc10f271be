package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/indigobills/indigobills/internal/client/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return db.WithContext(ctx).Create(client).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Client, error) {
	var client domain.Client
	err := db.WithContext(ctx).First(&client, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

func (r *repo) Search(ctx context.Context, db *gorm.DB, query string, limit int) ([]*domain.Client, error) {
	var clients []*domain.Client
	like := "%" + query + "%"
	err := db.WithContext(ctx).
		Where("name LIKE ? OR address LIKE ?", like, like).
		Order("id").
		Limit(limit).
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}
