package composables

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/facilities/pkg/constants"
)

var ErrNoActorFound = errors.New("no actor found in context")

// Actor is the authenticated identity performing a mutation, as supplied
// by the external identity provider: who they are, which department they
// belong to and which roles they hold.
type Actor struct {
	ID           uuid.UUID
	DepartmentID uuid.UUID
	Roles        []string
}

func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, constants.ActorKey, actor)
}

func UseActor(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(constants.ActorKey).(Actor)
	if !ok {
		return Actor{}, ErrNoActorFound
	}
	return actor, nil
}

// UseLogger returns the request-scoped logger. Falls back to the standard
// logrus logger when middleware did not install one (CLI paths, tests).
func UseLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok && entry != nil {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, entry)
}
