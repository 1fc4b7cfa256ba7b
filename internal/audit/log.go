// Package audit records administrative changes and security events as
// structured JSON lines on the shared logger. Entries are append-only;
// nothing in the engine rewrites or deletes them.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"filogate.org/internal/auth"
	"filogate.org/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for
// audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the attached request identifier, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit entry enriched with request and caller
// context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if rc, ok := auth.FromContext(ctx); ok {
		entry["user_id"] = rc.UserID
	}
	if len(fields) > 0 {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		entry["fields"] = copied
	} else {
		entry["fields"] = map[string]any{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}

// Recorder implements the auth.Audit collaborator by logging
// before/after images of entity changes.
type Recorder struct{}

// NewRecorder returns a change recorder.
func NewRecorder() *Recorder { return &Recorder{} }

var _ auth.Audit = (*Recorder)(nil)

// RecordChange logs one administrative change with its before and
// after states.
func (*Recorder) RecordChange(ctx context.Context, entity string, id int64, action string, before, after any, actor int64) error {
	return LogEvent(ctx, "change."+entity+"."+action, map[string]any{
		"entity":    entity,
		"entity_id": id,
		"action":    action,
		"before":    before,
		"after":     after,
		"actor":     actor,
	})
}
