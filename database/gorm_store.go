package database

import (
	"context"
	"errors"
	"time"

	"github.com/yeremiapane/table-order/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps values in the stored_values table (sqlite or mysql)
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v models.StoredValue
	err := s.DB.WithContext(ctx).Where("store_key = ?", key).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v.Value, true, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	v := models.StoredValue{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"store_value", "updated_at"}),
		}).
		Create(&v).Error
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.DB.WithContext(ctx).Where("store_key = ?", key).Delete(&models.StoredValue{}).Error
}
