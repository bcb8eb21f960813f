// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/rentity/internal/app/store/audit"
	"github.com/dalemusser/rentity/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls rejected and throttled credentials.
	Auth string
	// Admin controls organization and collection lifecycle events.
	Admin string
}

// Sink persists events. *audit.Store satisfies it.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger records audit events to a Sink and to zap.
// A nil *Logger is a no-op.
type Logger struct {
	sink   Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. A nil sink downgrades "all" and "db" to
// zap-only (the memory backend has nowhere to persist events).
func New(sink Sink, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{sink: sink, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.OrganizationID != "" {
		fields = append(fields, zap.String("organization_id", event.OrganizationID))
	}
	if event.Organization != "" {
		fields = append(fields, zap.String("organization", event.Organization))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Record writes event to the destinations configured for its category.
// Sink failures are logged, never returned: auditing does not fail requests.
func (l *Logger) Record(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = All
	}
	if setting == Off || setting == "" {
		return
	}

	if setting == All || setting == Log || l.sink == nil {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.sink != nil {
		if err := l.sink.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func fromRequest(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// --- Auth events ---

// AuthRejected records credentials the gate refused. claimedID and
// claimedName are the organization headers as sent.
func (l *Logger) AuthRejected(ctx context.Context, r *http.Request, reason, claimedID, claimedName string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventAuthRejected)
	e.OrganizationID = claimedID
	e.Organization = claimedName
	e.FailureReason = reason
	l.Record(ctx, e)
}

// AuthThrottled records a request turned away by the failure throttle.
func (l *Logger) AuthThrottled(ctx context.Context, r *http.Request) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventAuthThrottled)
	e.FailureReason = "too many rejected credentials"
	l.Record(ctx, e)
}

// --- Admin events ---

// OrgRegistered records a new organization.
func (l *Logger) OrgRegistered(ctx context.Context, r *http.Request, orgID, name string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventOrgRegistered)
	e.OrganizationID, e.Organization, e.Success = orgID, name, true
	l.Record(ctx, e)
}

// OrgDeleted records an organization cascade.
func (l *Logger) OrgDeleted(ctx context.Context, r *http.Request, orgID, name string, collections, entities int64) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventOrgDeleted)
	e.OrganizationID, e.Organization, e.Success = orgID, name, true
	e.Details = map[string]string{
		"collections": strconv.FormatInt(collections, 10),
		"entities":    strconv.FormatInt(entities, 10),
	}
	l.Record(ctx, e)
}

// CollectionCreated records a new collection.
func (l *Logger) CollectionCreated(ctx context.Context, r *http.Request, orgID, collectionID, name string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventCollectionCreated)
	e.OrganizationID, e.Success = orgID, true
	e.Details = map[string]string{"collection_id": collectionID, "name": name}
	l.Record(ctx, e)
}

// CollectionDeleted records a collection cascade.
func (l *Logger) CollectionDeleted(ctx context.Context, r *http.Request, orgID, collectionID, name string, entities int64) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventCollectionDeleted)
	e.OrganizationID, e.Success = orgID, true
	e.Details = map[string]string{
		"collection_id": collectionID,
		"name":          name,
		"entities":      strconv.FormatInt(entities, 10),
	}
	l.Record(ctx, e)
}
