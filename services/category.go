package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/easytrack/easytrack-api/models"
	"github.com/easytrack/easytrack-api/store"
)

type CategoryService struct {
	store store.Store
	log   *logrus.Logger
}

func NewCategoryService(st store.Store, log *logrus.Logger) *CategoryService {
	return &CategoryService{store: st, log: log}
}

func (s *CategoryService) Create(ctx context.Context, userID string, req models.CreateCategoryRequest) (*models.Category, error) {
	category := &models.Category{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      req.Name,
		Type:      req.Type,
		IsDefault: req.IsDefault,
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) Get(ctx context.Context, userID, id string) (*models.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if category.UserID != userID {
		return nil, models.ErrUnauthorized
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]models.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *CategoryService) ListByType(ctx context.Context, userID string, t models.CategoryType) ([]models.Category, error) {
	return s.store.ListCategoriesByType(ctx, userID, t)
}

func (s *CategoryService) ListDefaults(ctx context.Context, userID string) ([]models.Category, error) {
	return s.store.ListDefaultCategories(ctx, userID)
}

// Update changes display attributes only; a category's identity stays stable
// once transactions reference it.
func (s *CategoryService) Update(ctx context.Context, userID, id string, req models.UpdateCategoryRequest) (*models.Category, error) {
	category, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	category.Name = req.Name
	category.Type = req.Type

	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"category_id": id, "user_id": userID}).Info("category deleted")
	return nil
}
