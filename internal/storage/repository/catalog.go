package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// ListProducts возвращает каталог товаров.
func (s *Storage) ListProducts(ctx context.Context) ([]models.Product, error) {
	const op = "storage.ListProducts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, size_oz, sku, price FROM products ORDER BY name`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var result []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SizeOz, &p.SKU, &p.Price); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetProduct возвращает товар по ID.
func (s *Storage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	const op = "storage.GetProduct"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var p models.Product
	err := s.DB.QueryRowContext(ctx, `SELECT id, name, size_oz, sku, price FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.SizeOz, &p.SKU, &p.Price)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &p, nil
}

const planColumns = `id, name, product_id, frequency, min_qty, price, active`

func scanPlan(row scanner) (models.Plan, error) {
	var p models.Plan
	err := row.Scan(&p.ID, &p.Name, &p.ProductID, &p.Frequency, &p.MinQty, &p.Price, &p.Active)
	return p, err
}

// ListPlans возвращает тарифы. При onlyActive скрываются отключённые.
func (s *Storage) ListPlans(ctx context.Context, onlyActive bool) ([]models.Plan, error) {
	const op = "storage.ListPlans"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM plans
			  WHERE ($1 = false OR active = true)
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, onlyActive)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var result []models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPlan возвращает тариф по ID.
func (s *Storage) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPlan(s.DB.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return &p, nil
}

// CreatePlan сохраняет тариф и возвращает его ID.
func (s *Storage) CreatePlan(ctx context.Context, p models.Plan) (string, error) {
	const op = "storage.CreatePlan"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	query := `INSERT INTO plans (name, product_id, frequency, min_qty, price, active)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var id string
	if err := s.DB.QueryRowContext(ctx, query,
		p.Name, p.ProductID, p.Frequency, p.MinQty, p.Price, p.Active).Scan(&id); err != nil {
		return "", wrap(op, err)
	}
	return id, nil
}

// UpdatePlan перезаписывает тариф целиком.
func (s *Storage) UpdatePlan(ctx context.Context, p models.Plan) error {
	const op = "storage.UpdatePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE plans
			  SET name = $1, product_id = $2, frequency = $3, min_qty = $4, price = $5, active = $6
			  WHERE id = $7`
	res, err := s.DB.ExecContext(ctx, query,
		p.Name, p.ProductID, p.Frequency, p.MinQty, p.Price, p.Active, p.ID)
	if err != nil {
		return wrap(op, err)
	}
	return expectOne(op, res)
}
