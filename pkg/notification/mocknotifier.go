package notification

import "sync"

// SentMessage records one delivery made through the MockNotifier.
type SentMessage struct {
	Subject string
	Body    string
	Data    NotificationData
}

// MockNotifier captures sends for tests.
type MockNotifier struct {
	mu   sync.Mutex
	Sent []SentMessage
}

// Send records the message.
func (m *MockNotifier) Send(subject, body string, data NotificationData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{Subject: subject, Body: body, Data: data})
	return nil
}

// Last returns the most recent send, if any.
func (m *MockNotifier) Last() (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMessage{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
