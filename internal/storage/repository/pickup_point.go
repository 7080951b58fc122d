package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

const pickupColumns = `id, name, address, city, operating_hours, capacity, current_load, features`

func scanPickupPoint(row scanner) (models.PickupPoint, error) {
	var (
		p             models.PickupPoint
		hours, feats  []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Address, &p.City, &hours, &p.Capacity, &p.CurrentLoad, &feats); err != nil {
		return p, err
	}
	if err := fromJSON(hours, &p.OperatingHours); err != nil {
		return p, fmt.Errorf("operating hours: %w", err)
	}
	if err := fromJSON(feats, &p.Features); err != nil {
		return p, fmt.Errorf("features: %w", err)
	}
	return p, nil
}

// ListPickupPoints возвращает пункты самовывоза, при непустом city только в этом городе.
func (s *Storage) ListPickupPoints(ctx context.Context, city string) ([]models.PickupPoint, error) {
	const op = "storage.ListPickupPoints"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + pickupColumns + `
			  FROM pickup_points
			  WHERE ($1 = '' OR city = $1)
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, city)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var result []models.PickupPoint
	for rows.Next() {
		p, err := scanPickupPoint(rows)
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

// GetPickupPoint возвращает пункт самовывоза по ID.
func (s *Storage) GetPickupPoint(ctx context.Context, id string) (*models.PickupPoint, error) {
	const op = "storage.GetPickupPoint"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPickupPoint(s.DB.QueryRowContext(ctx, `SELECT `+pickupColumns+` FROM pickup_points WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return &p, nil
}
