package controllers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/facilities/modules/facilities/domain/entities/resource"
	"github.com/iota-uz/facilities/modules/facilities/services"
	"github.com/iota-uz/facilities/pkg/application"
)

type ResourcesAPIController struct {
	app       application.Application
	resources *services.ResourceService
	apiPrefix string
}

func NewResourcesAPIController(app application.Application) application.Controller {
	return &ResourcesAPIController{
		app:       app,
		resources: app.Service(services.ResourceService{}).(*services.ResourceService),
		apiPrefix: "/facilities/api",
	}
}

func (c *ResourcesAPIController) Key() string {
	return c.apiPrefix + "/resources"
}

func (c *ResourcesAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/resources", c.List).Methods(http.MethodGet)
	api.HandleFunc("/resources", c.Create).Methods(http.MethodPost)
	api.HandleFunc("/resources/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/resources/{id}:status", c.SetStatus).Methods(http.MethodPost)
}

func (c *ResourcesAPIController) List(w http.ResponseWriter, r *http.Request) {
	params := &resource.FindParams{
		Type: resource.Type(r.URL.Query().Get("type")),
	}
	if raw := r.URL.Query().Get("department_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "department_id is invalid")
			return
		}
		params.DepartmentID = id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		params.Limit, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		params.Offset, _ = strconv.Atoi(raw)
	}

	found, err := c.resources.GetPaginated(r.Context(), params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]resourceResponse, 0, len(found))
	for _, res := range found {
		out = append(out, toResourceResponse(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": out})
}

func (c *ResourcesAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	res, err := c.resources.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceResponse(res))
}

func (c *ResourcesAPIController) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody[struct {
		Type         string    `json:"type"`
		Name         string    `json:"name"`
		DepartmentID uuid.UUID `json:"department_id"`
		Quantity     int       `json:"quantity"`
	}](w, r)
	if !ok {
		return
	}
	created, err := c.resources.Create(r.Context(), &resource.Resource{
		Type:         resource.Type(body.Type),
		Name:         body.Name,
		DepartmentID: body.DepartmentID,
		Quantity:     body.Quantity,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResourceResponse(created))
}

func (c *ResourcesAPIController) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), "FACILITIES_INVALID_QUERY", "invalid id")
		return
	}
	body, ok := decodeBody[struct {
		Status string `json:"status"`
	}](w, r)
	if !ok {
		return
	}
	if err := c.resources.SetStatus(r.Context(), id, resource.Status(body.Status)); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := c.resources.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceResponse(res))
}
