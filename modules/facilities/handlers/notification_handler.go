package handlers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/pkg/application"
)

// NotificationHandler pushes request lifecycle events to websocket
// subscribers so dashboards update without polling.
type NotificationHandler struct {
	hub    *application.Hub
	logger *logrus.Logger
}

type requestUpdatePayload struct {
	Kind      string         `json:"kind"`
	RequestID uuid.UUID      `json:"request_id"`
	Type      request.Type   `json:"type"`
	Status    request.Status `json:"status"`
	ActorID   uuid.UUID      `json:"actor_id"`
	Detail    string         `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func RegisterNotificationHandler(app application.Application) *NotificationHandler {
	h := &NotificationHandler{
		hub:    app.Websocket(),
		logger: app.Logger(),
	}
	app.EventPublisher().Subscribe(h.onCreated)
	app.EventPublisher().Subscribe(h.onStatusChanged)
	app.EventPublisher().Subscribe(h.onIntervalChanged)
	app.EventPublisher().Subscribe(h.onWorkProgressed)
	app.EventPublisher().Subscribe(h.onFulfillment)
	return h
}

func (h *NotificationHandler) onCreated(event *request.CreatedEvent) {
	h.broadcast(requestUpdatePayload{
		Kind:      "request_created",
		RequestID: event.Result.ID,
		Type:      event.Result.Type,
		Status:    event.Result.Status,
		ActorID:   event.ActorID,
		Timestamp: event.Timestamp,
	})
}

func (h *NotificationHandler) onStatusChanged(event *request.StatusChangedEvent) {
	h.broadcast(requestUpdatePayload{
		Kind:      "status_changed",
		RequestID: event.Result.ID,
		Type:      event.Result.Type,
		Status:    event.To,
		ActorID:   event.ActorID,
		Detail:    string(event.From) + " -> " + string(event.To),
		Timestamp: event.Timestamp,
	})
}

func (h *NotificationHandler) onIntervalChanged(event *request.IntervalChangedEvent) {
	h.broadcast(requestUpdatePayload{
		Kind:      "interval_changed",
		RequestID: event.Result.ID,
		Type:      event.Result.Type,
		Status:    event.Result.Status,
		ActorID:   event.ActorID,
		Detail:    event.Start.Format(time.RFC3339) + " - " + event.End.Format(time.RFC3339),
		Timestamp: event.Timestamp,
	})
}

func (h *NotificationHandler) onWorkProgressed(event *request.WorkProgressedEvent) {
	h.broadcast(requestUpdatePayload{
		Kind:      "work_progressed",
		RequestID: event.Result.ID,
		Type:      event.Result.Type,
		Status:    event.Result.Status,
		ActorID:   event.ActorID,
		Detail:    string(event.JobStatus),
		Timestamp: event.Timestamp,
	})
}

func (h *NotificationHandler) onFulfillment(event *request.FulfillmentEvent) {
	h.broadcast(requestUpdatePayload{
		Kind:      "fulfillment",
		RequestID: event.Result.ID,
		Type:      event.Result.Type,
		Status:    event.Result.Status,
		ActorID:   event.ActorID,
		Detail:    event.Step,
		Timestamp: event.Timestamp,
	})
}

func (h *NotificationHandler) broadcast(payload requestUpdatePayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Error("failed to encode request update")
		return
	}
	h.hub.Broadcast(application.ChannelRequests, raw)
}
