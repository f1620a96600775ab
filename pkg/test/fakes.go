package test

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"todolist/internal/core/port"
)

var (
	otpPattern   = regexp.MustCompile(`\b(\d{6})\b`)
	tokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_\-\.]+)`)
)

// FakeMailer records every mail it is asked to send.
type FakeMailer struct {
	mu   sync.Mutex
	Err  error
	Sent []port.Mail
}

func (m *FakeMailer) Send(ctx context.Context, mail port.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.Sent = append(m.Sent, mail)

	return nil
}

func (m *FakeMailer) Last() (port.Mail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Sent) == 0 {
		return port.Mail{}, false
	}

	return m.Sent[len(m.Sent)-1], true
}

// LastOtp extracts the six digit code from the most recent mail.
func (m *FakeMailer) LastOtp() string {
	mail, ok := m.Last()

	if !ok {
		return ""
	}

	match := otpPattern.FindStringSubmatch(mail.HTML)

	if match == nil {
		return ""
	}

	return match[1]
}

// LastToken extracts the verification token from the most recent mail link.
func (m *FakeMailer) LastToken() string {
	mail, ok := m.Last()

	if !ok {
		return ""
	}

	match := tokenPattern.FindStringSubmatch(mail.HTML)

	if match == nil {
		return ""
	}

	return match[1]
}

// FakeStorage hands out predictable URLs and remembers deletions.
type FakeStorage struct {
	mu        sync.Mutex
	UploadErr error
	Uploaded  []string
	Deleted   []string
}

func (s *FakeStorage) Upload(ctx context.Context, localPath string) (port.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.UploadErr != nil {
		return port.StoredObject{}, s.UploadErr
	}

	publicID := fmt.Sprintf("avatar-%d", len(s.Uploaded)+1)
	url := "https://res.example.com/image/upload/v1/" + publicID + ".png"

	s.Uploaded = append(s.Uploaded, localPath)

	return port.StoredObject{URL: url, PublicID: publicID}, nil
}

func (s *FakeStorage) DeleteByURL(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Deleted = append(s.Deleted, url)

	return nil
}
