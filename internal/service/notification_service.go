package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/events"
)

// NotificationService is the best-effort side channel for assignment notices
// and audit touchpoints. Failures are logged and never returned to callers.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// SendAssignmentNotice emits an email-style notice that a person was added.
func (n *NotificationService) SendAssignmentNotice(ctx context.Context, personUUID, orgUUID string) {
	n.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventMemberAdded,
		OrgUUID:   orgUUID,
		Timestamp: time.Now(),
		Payload:   events.MemberAddedPayload{PersonUUID: personUUID},
	})
	n.sendEmailNotificationStub(personUUID, orgUUID)
}

// SendRemovalNotice emits the counterpart notice that a person was removed.
func (n *NotificationService) SendRemovalNotice(ctx context.Context, personUUID, orgUUID string) {
	n.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventMemberRemoved,
		OrgUUID:   orgUUID,
		Timestamp: time.Now(),
		Payload:   events.MemberRemovedPayload{PersonUUID: personUUID},
	})
}

// WriteTouchpoint records an audit touchpoint for the person.
func (n *NotificationService) WriteTouchpoint(ctx context.Context, personUUID, orgUUID, note string) {
	n.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTouchpoint,
		OrgUUID:   orgUUID,
		Timestamp: time.Now(),
		Payload:   events.TouchpointPayload{PersonUUID: personUUID, Note: note},
	})
}

// RegisterHandlers subscribes the webhook stub to job lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUploadJobDone, n.handleUploadJobDone)
	n.dispatcher.Subscribe(events.EventUploadJobFailed, n.handleUploadJobFailed)
}

func (n *NotificationService) handleUploadJobDone(ctx context.Context, event events.Event) error {
	n.logger.Info("UploadJobDone", zap.String("org_uuid", event.OrgUUID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(event)
	return nil
}

func (n *NotificationService) handleUploadJobFailed(ctx context.Context, event events.Event) error {
	n.logger.Info("UploadJobFailed", zap.String("org_uuid", event.OrgUUID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(event)
	return nil
}

func (n *NotificationService) publish(ctx context.Context, event events.Event) {
	if n.dispatcher == nil {
		return
	}
	if err := n.dispatcher.Publish(ctx, event); err != nil {
		n.logger.Warn("notification publish failed", zap.Error(err), zap.String("event_type", string(event.Type)))
	}
}

func (n *NotificationService) sendEmailNotificationStub(personUUID, orgUUID string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("person_uuid", personUUID),
		zap.String("org_uuid", orgUUID))
}

func (n *NotificationService) sendWebhookNotificationStub(event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)))
}
