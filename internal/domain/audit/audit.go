package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"zenpayroll/internal/platform/kv"
	"zenpayroll/internal/requestctx"
)

type Event struct {
	ID         string          `json:"id"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	Actor      string
}

// Recorder is what mutating services depend on.
type Recorder interface {
	Record(ctx context.Context, actor, action, entityType, entityID string, before, after any) error
}

type Service struct {
	events *kv.Collection[Event]
	now    func() time.Time
}

func New(store kv.Store) *Service {
	return &Service{
		events: kv.NewCollection(store, kv.NSAudit, func(e Event) string { return e.ID }, nil),
		now:    time.Now,
	}
}

func (s *Service) Record(ctx context.Context, actor, action, entityType, entityID string, before, after any) error {
	evt := Event{
		ID:         uuid.NewString(),
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(ctx),
		CreatedAt:  s.now().UTC(),
	}
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return err
		}
		evt.Before = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		evt.After = payload
	}
	_, err := s.events.Add(ctx, evt)
	return err
}

// List returns matching events newest first together with the match count.
func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, int, error) {
	events, err := s.events.List(ctx, func(e Event) bool {
		if filter.Action != "" && e.Action != filter.Action {
			return false
		}
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			return false
		}
		if filter.Actor != "" && e.Actor != filter.Actor {
			return false
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	slices.Reverse(events)
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })

	total := len(events)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return events[offset:end], total, nil
}

// Log records an event and only logs when that fails; audit problems never
// fail the mutation they describe.
func Log(ctx context.Context, rec Recorder, actor, action, entityType, entityID string, before, after any) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, actor, action, entityType, entityID, before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "entityType", entityType, "entityId", entityID, "error", err)
	}
}
