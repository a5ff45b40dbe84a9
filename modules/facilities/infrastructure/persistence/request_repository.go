package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/infrastructure/persistence/models"
	"github.com/iota-uz/facilities/pkg/composables"
)

const (
	requestFindQuery = `
		SELECT id, type, status, requester_id, department_id, reviewer_id,
		       rejection_reason, cancellation_reason, on_hold_reason,
		       created_at, updated_at, completed_at
		FROM facilities_requests`

	requestCountQuery = `SELECT COUNT(*) FROM facilities_requests`

	requestInsertQuery = `
		INSERT INTO facilities_requests (
			id, type, status, requester_id, department_id, reviewer_id,
			rejection_reason, cancellation_reason, on_hold_reason,
			created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	// The status guard serializes concurrent transitions: a stale writer
	// matches zero rows and gets ErrStale instead of a double transition.
	requestUpdateQuery = `
		UPDATE facilities_requests
		SET status = $3, reviewer_id = $4, rejection_reason = $5,
		    cancellation_reason = $6, on_hold_reason = $7,
		    updated_at = $8, completed_at = $9
		WHERE id = $1 AND status = $2`

	// Reservations are projected from the three interval-bound
	// specializations of requests still holding their claim. Transport
	// stores a point in time; the trip window derives its interval end.
	activeReservationsQuery = `
		SELECT r.id, v.venue_id, v.start_time, v.end_time
		FROM facilities_venue_requests v
		JOIN facilities_requests r ON r.id = v.request_id
		WHERE v.venue_id = $1 AND r.status = ANY($2) AND r.id <> $4
		UNION ALL
		SELECT r.id, t.vehicle_id, t.date_needed,
		       t.date_needed + make_interval(secs => $3)
		FROM facilities_transport_requests t
		JOIN facilities_requests r ON r.id = t.request_id
		WHERE t.vehicle_id = $1 AND r.status = ANY($2) AND r.id <> $4
		UNION ALL
		SELECT r.id, b.item_id, b.date_needed, b.return_date
		FROM facilities_returnable_requests b
		JOIN facilities_requests r ON r.id = b.request_id
		WHERE b.item_id = $1 AND r.status = ANY($2) AND r.id <> $4`

	jobFindQuery = `
		SELECT request_id, job_type, location, description, assigned_to,
		       status, verified_by_requester, verified_by_reviewer
		FROM facilities_job_requests WHERE request_id = $1`

	jobUpsertQuery = `
		INSERT INTO facilities_job_requests (
			request_id, job_type, location, description, assigned_to,
			status, verified_by_requester, verified_by_reviewer
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (request_id) DO UPDATE SET
			job_type = EXCLUDED.job_type,
			location = EXCLUDED.location,
			description = EXCLUDED.description,
			assigned_to = EXCLUDED.assigned_to,
			status = EXCLUDED.status,
			verified_by_requester = EXCLUDED.verified_by_requester,
			verified_by_reviewer = EXCLUDED.verified_by_reviewer`

	venueFindQuery = `
		SELECT request_id, venue_id, start_time, end_time, approved_by_head,
		       in_progress, actual_start, actual_end, setup_requirements
		FROM facilities_venue_requests WHERE request_id = $1`

	venueUpsertQuery = `
		INSERT INTO facilities_venue_requests (
			request_id, venue_id, start_time, end_time, approved_by_head,
			in_progress, actual_start, actual_end, setup_requirements
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (request_id) DO UPDATE SET
			venue_id = EXCLUDED.venue_id,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			approved_by_head = EXCLUDED.approved_by_head,
			in_progress = EXCLUDED.in_progress,
			actual_start = EXCLUDED.actual_start,
			actual_end = EXCLUDED.actual_end,
			setup_requirements = EXCLUDED.setup_requirements`

	transportFindQuery = `
		SELECT request_id, vehicle_id, date_needed, in_progress, actual_start,
		       odometer_start, odometer_end, total_distance_travelled
		FROM facilities_transport_requests WHERE request_id = $1`

	transportUpsertQuery = `
		INSERT INTO facilities_transport_requests (
			request_id, vehicle_id, date_needed, in_progress, actual_start,
			odometer_start, odometer_end, total_distance_travelled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (request_id) DO UPDATE SET
			vehicle_id = EXCLUDED.vehicle_id,
			date_needed = EXCLUDED.date_needed,
			in_progress = EXCLUDED.in_progress,
			actual_start = EXCLUDED.actual_start,
			odometer_start = EXCLUDED.odometer_start,
			odometer_end = EXCLUDED.odometer_end,
			total_distance_travelled = EXCLUDED.total_distance_travelled`

	returnableFindQuery = `
		SELECT request_id, item_id, date_needed, return_date, in_progress,
		       is_overdue, is_returned, actual_return_date, return_condition,
		       is_lost, lost_reason
		FROM facilities_returnable_requests WHERE request_id = $1`

	returnableUpsertQuery = `
		INSERT INTO facilities_returnable_requests (
			request_id, item_id, date_needed, return_date, in_progress,
			is_overdue, is_returned, actual_return_date, return_condition,
			is_lost, lost_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (request_id) DO UPDATE SET
			item_id = EXCLUDED.item_id,
			date_needed = EXCLUDED.date_needed,
			return_date = EXCLUDED.return_date,
			in_progress = EXCLUDED.in_progress,
			is_overdue = EXCLUDED.is_overdue,
			is_returned = EXCLUDED.is_returned,
			actual_return_date = EXCLUDED.actual_return_date,
			return_condition = EXCLUDED.return_condition,
			is_lost = EXCLUDED.is_lost,
			lost_reason = EXCLUDED.lost_reason`

	supplyFindQuery = `
		SELECT request_id, date_needed
		FROM facilities_supply_requests WHERE request_id = $1`

	supplyInsertQuery = `
		INSERT INTO facilities_supply_requests (request_id, date_needed)
		VALUES ($1, $2)
		ON CONFLICT (request_id) DO UPDATE SET date_needed = EXCLUDED.date_needed`

	supplyItemsFindQuery = `
		SELECT id, request_id, supply_item_id, quantity
		FROM facilities_supply_request_items
		WHERE request_id = $1 ORDER BY id`

	supplyItemInsertQuery = `
		INSERT INTO facilities_supply_request_items (id, request_id, supply_item_id, quantity)
		VALUES ($1, $2, $3, $4)`

	supplyItemsDeleteQuery = `DELETE FROM facilities_supply_request_items WHERE request_id = $1`

	reworkFindQuery = `
		SELECT id, request_id, rejection_reason, rework_start_date,
		       rework_end_date, resolved, created_at
		FROM facilities_rework_attempts
		WHERE request_id = $1 ORDER BY created_at, id`

	reworkInsertQuery = `
		INSERT INTO facilities_rework_attempts (
			id, request_id, rejection_reason, rework_start_date,
			rework_end_date, resolved, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	reworkUpdateQuery = `
		UPDATE facilities_rework_attempts
		SET rework_start_date = $2, rework_end_date = $3, resolved = $4
		WHERE id = $1`
)

type RequestRepository struct{}

func NewRequestRepository() request.Repository {
	return &RequestRepository{}
}

func (r *RequestRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, requestCountQuery).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "counting requests")
	}
	return count, nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row, err := scanRequestRow(tx.QueryRow(ctx, requestFindQuery+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, request.ErrNotFound
		}
		return nil, errors.Wrap(err, "querying request")
	}
	payload, err := r.loadPayload(ctx, row)
	if err != nil {
		return nil, err
	}
	return toDomainRequest(row, payload), nil
}

func (r *RequestRepository) GetPaginated(ctx context.Context, params *request.FindParams) ([]*request.Request, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := requestFindQuery + " WHERE 1=1"
	args := []any{}
	if params.Type != "" {
		args = append(args, string(params.Type))
		query += " AND type = $" + itoa(len(args))
	}
	if params.Status != "" {
		args = append(args, string(params.Status))
		query += " AND status = $" + itoa(len(args))
	}
	if params.RequesterID != uuid.Nil {
		args = append(args, params.RequesterID)
		query += " AND requester_id = $" + itoa(len(args))
	}
	query += " ORDER BY created_at DESC"
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
		return nil, errors.Wrap(err, "querying requests")
	}
	defer rows.Close()

	var dbRows []*models.Request
	for rows.Next() {
		row, err := scanRequestRow(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning request")
		}
		dbRows = append(dbRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*request.Request, 0, len(dbRows))
	for _, row := range dbRows {
		payload, err := r.loadPayload(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, toDomainRequest(row, payload))
	}
	return out, nil
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) (*request.Request, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	row := toDBRequest(req)
	if _, err := tx.Exec(ctx, requestInsertQuery,
		row.ID, row.Type, row.Status, row.RequesterID, row.DepartmentID,
		row.ReviewerID, row.RejectionReason, row.CancellationReason,
		row.OnHoldReason, row.CreatedAt, row.UpdatedAt, row.CompletedAt,
	); err != nil {
		return nil, errors.Wrap(err, "inserting request")
	}
	if err := r.savePayload(ctx, req); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, req.ID)
}

func (r *RequestRepository) Update(ctx context.Context, req *request.Request, expectedStatus request.Status) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	req.UpdatedAt = time.Now()
	row := toDBRequest(req)
	tag, err := tx.Exec(ctx, requestUpdateQuery,
		row.ID, string(expectedStatus), row.Status, row.ReviewerID,
		row.RejectionReason, row.CancellationReason, row.OnHoldReason,
		row.UpdatedAt, row.CompletedAt,
	)
	if err != nil {
		return errors.Wrap(err, "updating request")
	}
	if tag.RowsAffected() == 0 {
		return request.ErrStale
	}
	return r.savePayload(ctx, req)
}

func (r *RequestRepository) ActiveReservations(ctx context.Context, resourceID uuid.UUID, excludeID uuid.UUID, tripWindow time.Duration) ([]request.Reservation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]string, 0, len(request.ActiveReservationStatuses))
	for _, s := range request.ActiveReservationStatuses {
		statuses = append(statuses, string(s))
	}

	rows, err := tx.Query(ctx, activeReservationsQuery,
		resourceID, statuses, tripWindow.Seconds(), excludeID)
	if err != nil {
		return nil, errors.Wrap(err, "querying reservations")
	}
	defer rows.Close()

	var out []request.Reservation
	for rows.Next() {
		var res request.Reservation
		if err := rows.Scan(&res.RequestID, &res.ResourceID, &res.Start, &res.End); err != nil {
			return nil, errors.Wrap(err, "scanning reservation")
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *RequestRepository) AddReworkAttempt(ctx context.Context, attempt *request.ReworkAttempt) (*request.ReworkAttempt, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	if _, err := tx.Exec(ctx, reworkInsertQuery,
		attempt.ID, attempt.RequestID, attempt.RejectionReason,
		attempt.ReworkStartDate, attempt.ReworkEndDate,
		attempt.Resolved, attempt.CreatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "inserting rework attempt")
	}
	return attempt, nil
}

func (r *RequestRepository) UpdateReworkAttempt(ctx context.Context, attempt *request.ReworkAttempt) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, reworkUpdateQuery,
		attempt.ID, attempt.ReworkStartDate, attempt.ReworkEndDate, attempt.Resolved)
	if err != nil {
		return errors.Wrap(err, "updating rework attempt")
	}
	if tag.RowsAffected() == 0 {
		return request.ErrNotFound.WithDetails("rework attempt")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequestRow(row rowScanner) (*models.Request, error) {
	var out models.Request
	if err := row.Scan(
		&out.ID, &out.Type, &out.Status, &out.RequesterID, &out.DepartmentID,
		&out.ReviewerID, &out.RejectionReason, &out.CancellationReason,
		&out.OnHoldReason, &out.CreatedAt, &out.UpdatedAt, &out.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RequestRepository) loadPayload(ctx context.Context, row *models.Request) (request.Specialization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	switch request.Type(row.Type) {
	case request.TypeJob:
		var job models.JobRequest
		if err := tx.QueryRow(ctx, jobFindQuery, row.ID).Scan(
			&job.RequestID, &job.JobType, &job.Location, &job.Description,
			&job.AssignedTo, &job.Status, &job.VerifiedByRequester, &job.VerifiedByReviewer,
		); err != nil {
			return nil, errors.Wrap(err, "querying job payload")
		}
		attempts, err := r.loadReworkAttempts(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		return toDomainJob(&job, attempts), nil
	case request.TypeVenue:
		var venue models.VenueRequest
		if err := tx.QueryRow(ctx, venueFindQuery, row.ID).Scan(
			&venue.RequestID, &venue.VenueID, &venue.StartTime, &venue.EndTime,
			&venue.ApprovedByHead, &venue.InProgress, &venue.ActualStart,
			&venue.ActualEnd, &venue.SetupRequirements,
		); err != nil {
			return nil, errors.Wrap(err, "querying venue payload")
		}
		return toDomainVenue(&venue), nil
	case request.TypeTransport:
		var transport models.TransportRequest
		if err := tx.QueryRow(ctx, transportFindQuery, row.ID).Scan(
			&transport.RequestID, &transport.VehicleID, &transport.DateNeeded,
			&transport.InProgress, &transport.ActualStart, &transport.OdometerStart,
			&transport.OdometerEnd, &transport.TotalDistanceTravelled,
		); err != nil {
			return nil, errors.Wrap(err, "querying transport payload")
		}
		return toDomainTransport(&transport), nil
	case request.TypeBorrow:
		var borrow models.ReturnableRequest
		if err := tx.QueryRow(ctx, returnableFindQuery, row.ID).Scan(
			&borrow.RequestID, &borrow.ItemID, &borrow.DateNeeded, &borrow.ReturnDate,
			&borrow.InProgress, &borrow.IsOverdue, &borrow.IsReturned,
			&borrow.ActualReturnDate, &borrow.ReturnCondition, &borrow.IsLost, &borrow.LostReason,
		); err != nil {
			return nil, errors.Wrap(err, "querying returnable payload")
		}
		return toDomainBorrow(&borrow), nil
	case request.TypeSupply:
		var supply models.SupplyRequest
		if err := tx.QueryRow(ctx, supplyFindQuery, row.ID).Scan(
			&supply.RequestID, &supply.DateNeeded,
		); err != nil {
			return nil, errors.Wrap(err, "querying supply payload")
		}
		rows, err := tx.Query(ctx, supplyItemsFindQuery, row.ID)
		if err != nil {
			return nil, errors.Wrap(err, "querying supply items")
		}
		defer rows.Close()
		var items []models.SupplyRequestItem
		for rows.Next() {
			var item models.SupplyRequestItem
			if err := rows.Scan(&item.ID, &item.RequestID, &item.SupplyItemID, &item.Quantity); err != nil {
				return nil, errors.Wrap(err, "scanning supply item")
			}
			items = append(items, item)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return toDomainSupply(&supply, items), nil
	}
	return nil, request.ErrValidation.WithDetails("unknown request type " + row.Type)
}

func (r *RequestRepository) loadReworkAttempts(ctx context.Context, requestID uuid.UUID) ([]models.ReworkAttempt, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, reworkFindQuery, requestID)
	if err != nil {
		return nil, errors.Wrap(err, "querying rework attempts")
	}
	defer rows.Close()

	var out []models.ReworkAttempt
	for rows.Next() {
		var attempt models.ReworkAttempt
		if err := rows.Scan(
			&attempt.ID, &attempt.RequestID, &attempt.RejectionReason,
			&attempt.ReworkStartDate, &attempt.ReworkEndDate,
			&attempt.Resolved, &attempt.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scanning rework attempt")
		}
		out = append(out, attempt)
	}
	return out, rows.Err()
}

func (r *RequestRepository) savePayload(ctx context.Context, req *request.Request) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	switch payload := req.Payload.(type) {
	case *request.JobDetails:
		if _, err := tx.Exec(ctx, jobUpsertQuery,
			req.ID, payload.JobType, payload.Location, payload.Description,
			payload.AssignedTo, string(payload.Status),
			payload.VerifiedByRequester, payload.VerifiedByReviewer,
		); err != nil {
			return errors.Wrap(err, "saving job payload")
		}
	case *request.VenueDetails:
		if _, err := tx.Exec(ctx, venueUpsertQuery,
			req.ID, payload.VenueID, payload.StartTime, payload.EndTime,
			payload.ApprovedByHead, payload.InProgress, payload.ActualStart,
			payload.ActualEnd, payload.SetupRequirements,
		); err != nil {
			return errors.Wrap(err, "saving venue payload")
		}
	case *request.TransportDetails:
		if _, err := tx.Exec(ctx, transportUpsertQuery,
			req.ID, payload.VehicleID, payload.DateNeeded, payload.InProgress,
			payload.ActualStart, payload.OdometerStart, payload.OdometerEnd,
			payload.TotalDistanceTravelled,
		); err != nil {
			return errors.Wrap(err, "saving transport payload")
		}
	case *request.BorrowDetails:
		if _, err := tx.Exec(ctx, returnableUpsertQuery,
			req.ID, payload.ItemID, payload.DateNeeded, payload.ReturnDate,
			payload.InProgress, payload.IsOverdue, payload.IsReturned,
			payload.ActualReturnDate, payload.ReturnCondition,
			payload.IsLost, payload.LostReason,
		); err != nil {
			return errors.Wrap(err, "saving returnable payload")
		}
	case *request.SupplyDetails:
		if _, err := tx.Exec(ctx, supplyInsertQuery, req.ID, payload.DateNeeded); err != nil {
			return errors.Wrap(err, "saving supply payload")
		}
		if _, err := tx.Exec(ctx, supplyItemsDeleteQuery, req.ID); err != nil {
			return errors.Wrap(err, "clearing supply items")
		}
		for _, item := range payload.Items {
			if _, err := tx.Exec(ctx, supplyItemInsertQuery,
				uuid.New(), req.ID, item.SupplyItemID, item.Quantity,
			); err != nil {
				return errors.Wrap(err, "saving supply item")
			}
		}
	default:
		return request.ErrValidation.WithDetails("request has no payload")
	}
	return nil
}
