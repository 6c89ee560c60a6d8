package notification

import (
	"bytes"
	"fmt"
	"text/template"
)

type registeredTemplate struct {
	subject string
	body    *template.Template
}

// NotificationManager routes notification types to registered notifiers
// and renders their templates. Delivery is best effort: callers log send
// failures but never fail the surrounding flow on them.
type NotificationManager struct {
	notifiers            map[NotificationSystem]Notifier
	notificationRegistry map[NotificationType]map[NotificationSystem]registeredTemplate
}

// NewNotificationManager creates and returns a new NotificationManager.
func NewNotificationManager() *NotificationManager {
	return &NotificationManager{
		notifiers:            make(map[NotificationSystem]Notifier),
		notificationRegistry: make(map[NotificationType]map[NotificationSystem]registeredTemplate),
	}
}

// RegisterNotifier registers a notifier for a specific system.
func (nm *NotificationManager) RegisterNotifier(system NotificationSystem, notifier Notifier) {
	nm.notifiers[system] = notifier
}

// RegisterNotification adds a notification template to the registry.
func (nm *NotificationManager) RegisterNotification(notifType NotificationType, system NotificationSystem, subject, body string) error {
	if notifType == "" || system == "" || body == "" {
		return fmt.Errorf("invalid input: notification type, system and body cannot be empty")
	}

	tmpl, err := template.New(string(notifType)).Parse(body)
	if err != nil {
		return fmt.Errorf("failed to parse template for %s: %w", notifType, err)
	}

	if _, exists := nm.notificationRegistry[notifType]; !exists {
		nm.notificationRegistry[notifType] = make(map[NotificationSystem]registeredTemplate)
	}
	nm.notificationRegistry[notifType][system] = registeredTemplate{subject: subject, body: tmpl}
	return nil
}

// Send renders and delivers a notification over every system registered
// for its type.
func (nm *NotificationManager) Send(notifType NotificationType, data NotificationData) error {
	systemTemplates, exists := nm.notificationRegistry[notifType]
	if !exists {
		return fmt.Errorf("no templates registered for notification type: %s", notifType)
	}

	for system, tmpl := range systemTemplates {
		notifier, ok := nm.notifiers[system]
		if !ok {
			return fmt.Errorf("no notifier registered for system: %s", system)
		}

		var body bytes.Buffer
		if err := tmpl.body.Execute(&body, data.Data); err != nil {
			return fmt.Errorf("failed to render template for %s: %w", notifType, err)
		}

		if err := notifier.Send(tmpl.subject, body.String(), data); err != nil {
			return fmt.Errorf("failed to send %s via %s: %w", notifType, system, err)
		}
	}
	return nil
}
