package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/domain/entities/resource"
	"github.com/iota-uz/facilities/modules/facilities/infrastructure/persistence/models"
	"github.com/iota-uz/facilities/pkg/composables"
)

const (
	resourceFindQuery = `
		SELECT id, type, name, department_id, status, quantity, created_at, updated_at
		FROM facilities_resources`

	resourceInsertQuery = `
		INSERT INTO facilities_resources (
			id, type, name, department_id, status, quantity, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	resourceUpdateStatusQuery = `
		UPDATE facilities_resources SET status = $2, updated_at = $3 WHERE id = $1`

	// The quantity guard keeps stock from going negative under
	// concurrent pickups.
	resourceAdjustQuantityQuery = `
		UPDATE facilities_resources
		SET quantity = quantity + $2, updated_at = $3
		WHERE id = $1 AND quantity + $2 >= 0`
)

type ResourceRepository struct{}

func NewResourceRepository() resource.Repository {
	return &ResourceRepository{}
}

func (r *ResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	return r.getOne(ctx, resourceFindQuery+" WHERE id = $1", id)
}

func (r *ResourceRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	return r.getOne(ctx, resourceFindQuery+" WHERE id = $1 FOR UPDATE", id)
}

func (r *ResourceRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*resource.Resource, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.Resource
	if err := tx.QueryRow(ctx, query, id).Scan(
		&row.ID, &row.Type, &row.Name, &row.DepartmentID,
		&row.Status, &row.Quantity, &row.CreatedAt, &row.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, request.ErrNotFound.WithDetails("resource")
		}
		return nil, errors.Wrap(err, "querying resource")
	}
	return toDomainResource(&row), nil
}

func (r *ResourceRepository) GetPaginated(ctx context.Context, params *resource.FindParams) ([]*resource.Resource, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := resourceFindQuery + " WHERE 1=1"
	args := []any{}
	if params.Type != "" {
		args = append(args, string(params.Type))
		query += " AND type = $" + itoa(len(args))
	}
	if params.DepartmentID != uuid.Nil {
		args = append(args, params.DepartmentID)
		query += " AND department_id = $" + itoa(len(args))
	}
	query += " ORDER BY name"
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += " LIMIT $" + itoa(len(args))
	}
	if params.Offset > 0 {
		args = append(args, params.Offset)
		query += " OFFSET $" + itoa(len(args))
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying resources")
	}
	defer rows.Close()

	var out []*resource.Resource
	for rows.Next() {
		var row models.Resource
		if err := rows.Scan(
			&row.ID, &row.Type, &row.Name, &row.DepartmentID,
			&row.Status, &row.Quantity, &row.CreatedAt, &row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scanning resource")
		}
		out = append(out, toDomainResource(&row))
	}
	return out, rows.Err()
}

func (r *ResourceRepository) Create(ctx context.Context, res *resource.Resource) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	now := time.Now()
	if res.CreatedAt.IsZero() {
		res.CreatedAt = now
	}
	res.UpdatedAt = now

	row := toDBResource(res)
	if _, err := tx.Exec(ctx, resourceInsertQuery,
		row.ID, row.Type, row.Name, row.DepartmentID,
		row.Status, row.Quantity, row.CreatedAt, row.UpdatedAt,
	); err != nil {
		return errors.Wrap(err, "inserting resource")
	}
	return nil
}

func (r *ResourceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status resource.Status) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, resourceUpdateStatusQuery, id, string(status), time.Now())
	if err != nil {
		return errors.Wrap(err, "updating resource status")
	}
	if tag.RowsAffected() == 0 {
		return request.ErrNotFound.WithDetails("resource")
	}
	return nil
}

func (r *ResourceRepository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, resourceAdjustQuantityQuery, id, delta, time.Now())
	if err != nil {
		return errors.Wrap(err, "adjusting resource quantity")
	}
	if tag.RowsAffected() == 0 {
		return request.ErrValidation.WithDetails("insufficient stock")
	}
	return nil
}
