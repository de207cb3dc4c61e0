package telegram

import (
	"context"
	"sync"
	"unicode/utf8"
)

// Mock permite tests sin llamar a la Bot API real.
type Mock struct {
	mu        sync.Mutex
	Messages  []SendMessage
	Photos    []SendPhoto
	Links     []string
	MessageID int64
	Err       error
}

func (m *Mock) SendMessage(_ context.Context, msg SendMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if utf8.RuneCountInString(msg.Text) > MaxMessageLength {
		return 0, ErrMessageTooLong
	}
	m.Messages = append(m.Messages, msg)
	return m.MessageID, nil
}

func (m *Mock) SendPhoto(_ context.Context, msg SendPhoto) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.Photos = append(m.Photos, msg)
	return m.MessageID, nil
}

func (m *Mock) DeliverLoginLink(_ context.Context, chatID, url string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.Links = append(m.Links, url)
	return m.MessageID, nil
}
