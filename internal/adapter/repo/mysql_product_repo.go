package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/shopspring/decimal"
)

const productColumns = `id,name,category,retail_price,wholesale_price,image_url,description,specs_json`

type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

func (r *MySQLProductRepo) List(ctx context.Context, f usecase.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	where = append(where, "active = 1")
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Search != "" {
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		like := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		args = append(args, like, like)
	}
	args = append(args, f.Limit)

	q := "SELECT " + productColumns + " FROM products WHERE " + strings.Join(where, " AND ") + " ORDER BY name LIMIT ?"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *MySQLProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ? AND active = 1", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, usecase.ErrProductNotFound
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p                      domain.Product
		category               string
		wholesale              decimal.NullDecimal
		image, desc, specsJSON sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Name, &category, &p.RetailPrice, &wholesale, &image, &desc, &specsJSON); err != nil {
		return domain.Product{}, err
	}
	p.Category = domain.Category(category)
	if wholesale.Valid {
		p.WholesalePrice = wholesale.Decimal
	}
	p.ImageURL = image.String
	p.Description = desc.String
	if specsJSON.Valid && specsJSON.String != "" {
		if err := json.Unmarshal([]byte(specsJSON.String), &p.Specs); err != nil {
			return domain.Product{}, fmt.Errorf("product %s specs: %w", p.ID, err)
		}
	}
	return p, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ usecase.ProductRepo = (*MySQLProductRepo)(nil)
