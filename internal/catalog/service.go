package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
)

// ErrNotFound is returned when no active item carries the requested id.
var ErrNotFound = errors.New("catalog item not found")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the storefront catalog and its admin management.
type Service interface {
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id int) (Item, error)
	AdminList(ctx context.Context) ([]Item, error)
	Create(ctx context.Context, input CreateItemInput) (Item, error)
	Update(ctx context.Context, id int, input UpdateItemInput) (Item, error)
	Deactivate(ctx context.Context, id int) error
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("catalog repository is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	return &service{repo: repo, tx: tx, logg: logg, now: time.Now}, nil
}

func (s *service) List(ctx context.Context) ([]Item, error) {
	rows, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	return fromModels(rows), nil
}

// Get returns an active item. Deactivated items are invisible to customers.
func (s *service) Get(ctx context.Context, id int) (Item, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Item{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "product not found")
		}
		return Item{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !row.IsActive {
		return Item{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "product not found")
	}
	return fromModel(*row), nil
}

func (s *service) AdminList(ctx context.Context) ([]Item, error) {
	rows, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	return fromModels(rows), nil
}

func (s *service) Create(ctx context.Context, input CreateItemInput) (Item, error) {
	name := strings.TrimSpace(input.Name)
	category := strings.TrimSpace(input.Category)
	if name == "" || category == "" {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "name and category are required")
	}
	if input.Price.IsNegative() {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.Stock < 0 {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	now := s.now().UTC()
	row := models.CatalogItem{
		Name:        name,
		Price:       input.Price.Round(2),
		Category:    category,
		Image:       strings.TrimSpace(input.Image),
		Description: strings.TrimSpace(input.Description),
		Stock:       input.Stock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if row.Image == "" {
		row.Image = placeholderImage
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		id, err := repo.NextID(ctx)
		if err != nil {
			return err
		}
		row.ID = id
		return repo.Create(ctx, &row)
	})
	if err != nil {
		return Item{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "catalog_item_id", row.ID), "catalog item created")
	}
	return fromModel(row), nil
}

func (s *service) Update(ctx context.Context, id int, input UpdateItemInput) (Item, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price"] = input.Price.Round(2)
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "category must not be empty")
		}
		updates["category"] = category
	}
	if input.Image != nil {
		updates["image"] = strings.TrimSpace(*input.Image)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	var out models.CatalogItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, id, updates); err != nil {
			return err
		}
		row, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		out = *row
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Item{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "product not found")
		}
		return Item{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return fromModel(out), nil
}

// Deactivate hides the item from the storefront. Past orders keep their snapshot.
func (s *service) Deactivate(ctx context.Context, id int) error {
	inactive := false
	_, err := s.Update(ctx, id, UpdateItemInput{IsActive: &inactive})
	return err
}
