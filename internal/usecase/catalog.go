package usecase

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
)

const maxListLimit = 100

type Catalog struct {
	repo ProductRepo
}

func NewCatalog(repo ProductRepo) *Catalog {
	return &Catalog{repo: repo}
}

// List filters by category ("" for all) and a case-insensitive name search.
func (uc *Catalog) List(ctx context.Context, category, search string, limit int) ([]domain.Product, error) {
	cat, err := domain.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return uc.repo.List(ctx, ProductFilter{
		Category: cat,
		Search:   strings.TrimSpace(search),
		Limit:    limit,
	})
}

func (uc *Catalog) Get(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, ErrProductNotFound
	}
	return uc.repo.Get(ctx, id)
}
