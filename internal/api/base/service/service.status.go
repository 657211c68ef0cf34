package basesvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"servicehub/internal/eventbus"
	"servicehub/internal/logger"
	"servicehub/internal/notification"
	"servicehub/internal/statushistory"
)

// TransitionStatus moves the document matched by filter to next, pushing the status it
// replaces onto the tracker's history field in the same write. set carries extra fields
// written alongside. Returns the document as stored afterwards.
func TransitionStatus[T any, V ~string](ctx context.Context, s *BaseServiceMongoImpl[T], tracker statushistory.Tracker[V], filter bson.M, next statushistory.Entry[V], set bson.M) (T, error) {
	return s.FindOneAndUpdate(ctx, filter, tracker.Update(next, set))
}

// Transition describes a committed status change.
type Transition struct {
	Entity         string
	EntityID       string
	OrganizationID string
	From           string
	To             string
	Reason         string
	UpdatedBy      string
	UpdatedAt      int64
	// Recipients are pushed a notification; none for entities without assignees.
	Recipients []string
	// Event is the notification event name, defaults to status-changed.
	Event string
}

// Effects fans committed transitions out to the audit log, the event bus and push.
// None of them can fail the transition.
type Effects struct {
	Events   eventbus.Publisher
	Notifier notification.Notifier
}

// Announce runs the after-commit side effects of t.
func (fx Effects) Announce(ctx context.Context, t Transition) {
	logger.LogStatusChange(t.Entity, t.EntityID, t.UpdatedBy, t.OrganizationID, t.From, t.To)

	eventbus.Emit(ctx, fx.Events, eventbus.StatusChanged{
		Entity:         t.Entity,
		EntityID:       t.EntityID,
		OrganizationID: t.OrganizationID,
		From:           t.From,
		To:             t.To,
		Reason:         t.Reason,
		UpdatedBy:      t.UpdatedBy,
		UpdatedAt:      t.UpdatedAt,
	})

	if fx.Notifier == nil || len(t.Recipients) == 0 {
		return
	}
	event := t.Event
	if event == "" {
		event = notification.EventStatusChanged
	}
	fx.notify(ctx, t.Recipients, notification.Payload{
		Title: fmt.Sprintf("%s updated", t.Entity),
		Body:  fmt.Sprintf("Status is now %s", t.To),
		Data: map[string]string{
			notification.KeyEntity:   t.Entity,
			notification.KeyEntityID: t.EntityID,
			notification.KeyStatus:   t.To,
			notification.KeyEvent:    event,
		},
	})
}

func (fx Effects) notify(ctx context.Context, userIDs []string, p notification.Payload) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithModule("notification").WithField("recipients", userIDs).Errorf("notify panicked: %v", r)
		}
	}()
	fx.Notifier.Notify(ctx, userIDs, p)
}
