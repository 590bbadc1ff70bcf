package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/events"
)

func TestSendAssignmentNoticePublishesMemberAdded(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	var published []events.Event
	dispatcher.Subscribe(events.EventMemberAdded, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	svc := NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{})
	svc.SendAssignmentNotice(context.Background(), "p-1", "org-1")

	assert.Len(t, published, 1)
	assert.Equal(t, "org-1", published[0].OrgUUID)
}

func TestSendRemovalNoticePublishesMemberRemoved(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	var payloads []events.MemberRemovedPayload
	dispatcher.Subscribe(events.EventMemberRemoved, func(_ context.Context, e events.Event) error {
		payloads = append(payloads, e.Payload.(events.MemberRemovedPayload))
		return nil
	})

	svc := NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{})
	svc.SendRemovalNotice(context.Background(), "p-1", "org-1")

	assert.Len(t, payloads, 1)
	assert.Equal(t, "p-1", payloads[0].PersonUUID)
}

func TestWriteTouchpointPublishesTouchpoint(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	var payloads []events.TouchpointPayload
	dispatcher.Subscribe(events.EventTouchpoint, func(_ context.Context, e events.Event) error {
		payloads = append(payloads, e.Payload.(events.TouchpointPayload))
		return nil
	})

	svc := NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{})
	svc.WriteTouchpoint(context.Background(), "p-1", "org-1", "added to roster")

	assert.Len(t, payloads, 1)
	assert.Equal(t, "added to roster", payloads[0].Note)
}

func TestNilDispatcherIsTolerated(t *testing.T) {
	svc := NewNotificationService(nil, zap.NewNop(), config.NotificationConfig{})
	svc.SendAssignmentNotice(context.Background(), "p-1", "org-1")
	svc.SendRemovalNotice(context.Background(), "p-1", "org-1")
	svc.WriteTouchpoint(context.Background(), "p-1", "org-1", "note")
	svc.RegisterHandlers()
}
