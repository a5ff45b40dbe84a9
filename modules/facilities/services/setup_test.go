package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/domain/entities/resource"
	"github.com/iota-uz/facilities/modules/facilities/domain/workflow"
	"github.com/iota-uz/facilities/modules/facilities/permissions"
	"github.com/iota-uz/facilities/pkg/authz"
	"github.com/iota-uz/facilities/pkg/composables"
	"github.com/iota-uz/facilities/pkg/eventbus"
)

const testTripWindow = 8 * time.Hour

func TestMain(m *testing.M) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.ErrorLevel)

	svc, err := authz.NewService(authz.Config{
		Grants: permissions.Grants(),
		Logger: logger,
	})
	if err != nil {
		panic(err)
	}
	authz.Setup(svc)
	os.Exit(m.Run())
}

// stubTx satisfies pgx.Tx so InTx reuses it instead of opening a real
// transaction. Repositories are mocked, so no method is ever reached.
type stubTx struct{}

func (stubTx) Begin(context.Context) (pgx.Tx, error) { return stubTx{}, nil }
func (stubTx) Commit(context.Context) error          { return nil }
func (stubTx) Rollback(context.Context) error        { return nil }
func (stubTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (stubTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { panic("not implemented") }
func (stubTx) LargeObjects() pgx.LargeObjects                         { panic("not implemented") }
func (stubTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) { panic("not implemented") }
func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row        { panic("not implemented") }
func (stubTx) Conn() *pgx.Conn                                         { return nil }

func testContext(actor composables.Actor) context.Context {
	ctx := composables.WithTx(context.Background(), stubTx{})
	return composables.WithActor(ctx, actor)
}

// mockRequestRepository keeps requests in memory. GetByID returns deep
// copies so the status guard in Update behaves like the SQL one.
type mockRequestRepository struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*request.Request
}

func newMockRequestRepository() *mockRequestRepository {
	return &mockRequestRepository{requests: make(map[uuid.UUID]*request.Request)}
}

func clonePayload(payload request.Specialization) request.Specialization {
	switch p := payload.(type) {
	case *request.JobDetails:
		out := *p
		out.ReworkAttempts = append([]request.ReworkAttempt(nil), p.ReworkAttempts...)
		return &out
	case *request.VenueDetails:
		out := *p
		out.SetupRequirements = append([]string(nil), p.SetupRequirements...)
		return &out
	case *request.TransportDetails:
		out := *p
		return &out
	case *request.BorrowDetails:
		out := *p
		return &out
	case *request.SupplyDetails:
		out := *p
		out.Items = append([]request.SupplyLine(nil), p.Items...)
		return &out
	}
	return payload
}

func cloneRequest(req *request.Request) *request.Request {
	out := *req
	out.Payload = clonePayload(req.Payload)
	return &out
}

func (m *mockRequestRepository) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.requests)), nil
}

func (m *mockRequestRepository) GetByID(_ context.Context, id uuid.UUID) (*request.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.requests[id]
	if !ok {
		return nil, request.ErrNotFound
	}
	return cloneRequest(stored), nil
}

func (m *mockRequestRepository) GetPaginated(_ context.Context, params *request.FindParams) ([]*request.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*request.Request
	for _, stored := range m.requests {
		if params.Type != "" && stored.Type != params.Type {
			continue
		}
		if params.Status != "" && stored.Status != params.Status {
			continue
		}
		if params.RequesterID != uuid.Nil && stored.RequesterID != params.RequesterID {
			continue
		}
		out = append(out, cloneRequest(stored))
	}
	return out, nil
}

func (m *mockRequestRepository) Create(_ context.Context, req *request.Request) (*request.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	m.requests[req.ID] = cloneRequest(req)
	return cloneRequest(req), nil
}

func (m *mockRequestRepository) Update(_ context.Context, req *request.Request, expectedStatus request.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.requests[req.ID]
	if !ok {
		return request.ErrNotFound
	}
	if stored.Status != expectedStatus {
		return request.ErrStale
	}
	req.UpdatedAt = time.Now()
	m.requests[req.ID] = cloneRequest(req)
	return nil
}

func (m *mockRequestRepository) ActiveReservations(_ context.Context, resourceID uuid.UUID, excludeID uuid.UUID, tripWindow time.Duration) ([]request.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []request.Reservation
	for _, stored := range m.requests {
		if stored.ID == excludeID {
			continue
		}
		active := false
		for _, status := range request.ActiveReservationStatuses {
			if stored.Status == status {
				active = true
				break
			}
		}
		if !active {
			continue
		}
		id, ok := stored.ResourceID()
		if !ok || id != resourceID {
			continue
		}
		start, end, ok := stored.Interval(tripWindow)
		if !ok {
			continue
		}
		out = append(out, request.Reservation{
			RequestID:  stored.ID,
			ResourceID: id,
			Start:      start,
			End:        end,
		})
	}
	return out, nil
}

func (m *mockRequestRepository) AddReworkAttempt(_ context.Context, attempt *request.ReworkAttempt) (*request.ReworkAttempt, error) {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	return attempt, nil
}

func (m *mockRequestRepository) UpdateReworkAttempt(context.Context, *request.ReworkAttempt) error {
	return nil
}

// mockResourceRepository keeps resources in memory.
type mockResourceRepository struct {
	mu        sync.Mutex
	resources map[uuid.UUID]*resource.Resource
}

func newMockResourceRepository() *mockResourceRepository {
	return &mockResourceRepository{resources: make(map[uuid.UUID]*resource.Resource)}
}

func (m *mockResourceRepository) add(res *resource.Resource) *resource.Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.Status == "" {
		res.Status = resource.StatusAvailable
	}
	if res.Quantity == 0 && res.Type != resource.TypeSupply {
		res.Quantity = 1
	}
	m.resources[res.ID] = res
	return res
}

func (m *mockResourceRepository) GetByID(_ context.Context, id uuid.UUID) (*resource.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.resources[id]
	if !ok {
		return nil, request.ErrNotFound.WithDetails("resource")
	}
	out := *res
	return &out, nil
}

func (m *mockResourceRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	return m.GetByID(ctx, id)
}

func (m *mockResourceRepository) GetPaginated(_ context.Context, params *resource.FindParams) ([]*resource.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*resource.Resource
	for _, res := range m.resources {
		if params.Type != "" && res.Type != params.Type {
			continue
		}
		copied := *res
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockResourceRepository) Create(_ context.Context, res *resource.Resource) error {
	m.add(res)
	return nil
}

func (m *mockResourceRepository) UpdateStatus(_ context.Context, id uuid.UUID, status resource.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.resources[id]
	if !ok {
		return request.ErrNotFound.WithDetails("resource")
	}
	res.Status = status
	return nil
}

func (m *mockResourceRepository) AdjustQuantity(_ context.Context, id uuid.UUID, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.resources[id]
	if !ok {
		return request.ErrNotFound.WithDetails("resource")
	}
	if res.Quantity+delta < 0 {
		return request.ErrValidation.WithDetails("insufficient stock")
	}
	res.Quantity += delta
	return nil
}

// testEnv wires the services against in-memory repositories and a real
// event bus.
type testEnv struct {
	requests  *mockRequestRepository
	resources *mockResourceRepository
	publisher eventbus.EventBus

	requestSvc *RequestService
	jobSvc     *JobWorkService
	fulfillSvc *FulfillmentService

	dept      uuid.UUID
	requester composables.Actor
	reviewer  composables.Actor
	approver  composables.Actor
	worker    composables.Actor
}

func newTestEnv() *testEnv {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	requests := newMockRequestRepository()
	resources := newMockResourceRepository()
	publisher := eventbus.NewEventPublisher(logger)
	engine := workflow.NewEngine()
	checker := NewConflictChecker(requests, resources, testTripWindow)

	dept := uuid.New()
	return &testEnv{
		requests:   requests,
		resources:  resources,
		publisher:  publisher,
		requestSvc: NewRequestService(requests, resources, checker, engine, publisher),
		jobSvc:     NewJobWorkService(requests, publisher),
		fulfillSvc: NewFulfillmentService(requests, resources, engine, publisher),
		dept:       dept,
		requester: composables.Actor{
			ID: uuid.New(), DepartmentID: dept,
			Roles: []string{permissions.RoleRequester},
		},
		reviewer: composables.Actor{
			ID: uuid.New(), DepartmentID: dept,
			Roles: []string{permissions.RoleOperationsManager},
		},
		approver: composables.Actor{
			ID: uuid.New(), DepartmentID: dept,
			Roles: []string{permissions.RoleDepartmentHead},
		},
		worker: composables.Actor{
			ID: uuid.New(), DepartmentID: dept,
			Roles: []string{permissions.RoleMaintenancePersonnel},
		},
	}
}

func (e *testEnv) ctx(actor composables.Actor) context.Context {
	return testContext(actor)
}
