package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/services"
	"github.com/iota-uz/facilities/pkg/application"
)

// RequestsAPIController exposes the request lifecycle over JSON: create,
// list, lifecycle transitions, the job sub-machine and fulfillment
// steps.
type RequestsAPIController struct {
	app         application.Application
	requests    *services.RequestService
	jobs        *services.JobWorkService
	fulfillment *services.FulfillmentService
	apiPrefix   string
}

func NewRequestsAPIController(app application.Application) application.Controller {
	return &RequestsAPIController{
		app:         app,
		requests:    app.Service(services.RequestService{}).(*services.RequestService),
		jobs:        app.Service(services.JobWorkService{}).(*services.JobWorkService),
		fulfillment: app.Service(services.FulfillmentService{}).(*services.FulfillmentService),
		apiPrefix:   "/facilities/api",
	}
}

func (c *RequestsAPIController) Key() string {
	return c.apiPrefix + "/requests"
}

func (c *RequestsAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/requests", c.List).Methods(http.MethodGet)
	api.HandleFunc("/requests", c.Create).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id}:transition", c.Transition).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:interval", c.UpdateInterval).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:venue-decision", c.VenueDecision).Methods(http.MethodPost)

	api.HandleFunc("/requests/{id}:assign", c.Assign).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:start-work", c.StartWork).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:complete-work", c.CompleteWork).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:verify", c.Verify).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:reject-work", c.RejectWork).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:start-rework", c.StartRework).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:finish-rework", c.FinishRework).Methods(http.MethodPost)

	api.HandleFunc("/requests/{id}:start-venue", c.StartVenue).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:complete-venue", c.CompleteVenue).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:start-transport", c.StartTransport).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:complete-transport", c.CompleteTransport).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:pickup-item", c.PickupItem).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:return-item", c.ReturnItem).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:report-lost", c.ReportLost).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:pickup-supplies", c.PickupSupplies).Methods(http.MethodPost)
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	return id, err == nil
}

func decodeBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var body T
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_BODY", "invalid json body")
		return body, false
	}
	return body, true
}

func (c *RequestsAPIController) List(w http.ResponseWriter, r *http.Request) {
	params := &request.FindParams{
		Type:   request.Type(r.URL.Query().Get("type")),
		Status: request.Status(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("requester_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "requester_id is invalid")
			return
		}
		params.RequesterID = id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		params.Limit, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		params.Offset, _ = strconv.Atoi(raw)
	}

	found, err := c.requests.GetPaginated(r.Context(), params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]requestResponse, 0, len(found))
	for _, req := range found {
		out = append(out, toRequestResponse(req))
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": out})
}

func (c *RequestsAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	req, err := c.requests.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(req))
}

func (c *RequestsAPIController) Create(w http.ResponseWriter, r *http.Request) {
	dto, ok := decodeBody[request.CreateDTO](w, r)
	if !ok {
		return
	}
	created, err := c.requests.Create(r.Context(), &dto)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestResponse(created))
}

func (c *RequestsAPIController) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	body, ok := decodeBody[struct {
		Target string `json:"target"`
		Reason string `json:"reason"`
	}](w, r)
	if !ok {
		return
	}
	updated, err := c.requests.UpdateStatus(r.Context(), id, request.Status(body.Target), body.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(updated))
}

func (c *RequestsAPIController) UpdateInterval(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	body, ok := decodeBody[struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}](w, r)
	if !ok {
		return
	}
	updated, err := c.requests.UpdateInterval(r.Context(), id, body.Start, body.End)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(updated))
}

func (c *RequestsAPIController) VenueDecision(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	body, ok := decodeBody[struct {
		Approved bool   `json:"approved"`
		Reason   string `json:"reason"`
	}](w, r)
	if !ok {
		return
	}
	updated, err := c.requests.SetVenueHeadDecision(r.Context(), id, body.Approved, body.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(updated))
}

func (c *RequestsAPIController) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	body, ok := decodeBody[struct {
		PersonnelID uuid.UUID `json:"personnel_id"`
	}](w, r)
	if !ok {
		return
	}
	updated, err := c.jobs.AssignPersonnel(r.Context(), id, body.PersonnelID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(updated))
}

func (c *RequestsAPIController) StartWork(w http.ResponseWriter, r *http.Request) {
	c.runAction(w, r, c.jobs.StartWork)
}

func (c *RequestsAPIController) CompleteWork(w http.ResponseWriter, r *http.Request) {
	c.runAction(w, r, c.jobs.CompleteWork)
}

func (c *RequestsAPIController) Verify(w http.ResponseWriter, r *http.Request) {
	c.runAction(w, r, c.jobs.Verify)
}

func (c *RequestsAPIController) StartRework(w http.ResponseWriter, r *http.Request) {
	c.runAction(w, r, c.jobs.StartRework)
}

func (c *RequestsAPIController) FinishRework(w http.ResponseWriter, r *http.Request) {
	c.runAction(w, r, c.jobs.FinishRework)
}

func (c *RequestsAPIController) RejectWork(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	body, ok := decodeBody[struct {
		Reason string `json:"reason"`
	}](w, r)
	if !ok {
		return
	}
	updated, err := c.jobs.RejectWork(r.Context(), id, body.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(updated))
}

func (c *RequestsAPIController) StartVenue(w http.ResponseWriter, r *http.Request) {
	c.runAction(w, r, c.fulfillment.StartVenue)
}

func (c *RequestsAPIController) CompleteVenue(w http.ResponseWriter, r *http.Request) {
	c.runAction(w, r, c.fulfillment.CompleteVenue)
}

func (c *RequestsAPIController) PickupItem(w http.ResponseWriter, r *http.Request) {
	c.runAction(w, r, c.fulfillment.PickupItem)
}

func (c *RequestsAPIController) PickupSupplies(w http.ResponseWriter, r *http.Request) {
	c.runAction(w, r, c.fulfillment.PickupSupplies)
}

func (c *RequestsAPIController) StartTransport(w http.ResponseWriter, r *http.Request) {
	c.odometerAction(w, r, c.fulfillment.StartTransport)
}

func (c *RequestsAPIController) CompleteTransport(w http.ResponseWriter, r *http.Request) {
	c.odometerAction(w, r, c.fulfillment.CompleteTransport)
}

func (c *RequestsAPIController) ReturnItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	body, ok := decodeBody[struct {
		Condition string `json:"condition"`
	}](w, r)
	if !ok {
		return
	}
	updated, err := c.fulfillment.ReturnItem(r.Context(), id, body.Condition)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(updated))
}

func (c *RequestsAPIController) ReportLost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	body, ok := decodeBody[struct {
		Reason string `json:"reason"`
	}](w, r)
	if !ok {
		return
	}
	updated, err := c.fulfillment.ReportItemLost(r.Context(), id, body.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(updated))
}

type requestAction func(ctx context.Context, id uuid.UUID) (*request.Request, error)

// runAction handles the body-less POST actions that take only the
// request id.
func (c *RequestsAPIController) runAction(w http.ResponseWriter, r *http.Request, action requestAction) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	updated, err := action(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(updated))
}

func (c *RequestsAPIController) odometerAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, id uuid.UUID, odometer int64) (*request.Request, error),
) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	body, ok := decodeBody[struct {
		Odometer int64 `json:"odometer"`
	}](w, r)
	if !ok {
		return
	}
	updated, err := action(r.Context(), id, body.Odometer)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(updated))
}
