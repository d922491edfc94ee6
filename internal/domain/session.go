package domain

import (
	"encoding/json"
	"time"
)

// SessionTTL is how long a freshly created storefront session stays valid
const SessionTTL = 24 * time.Hour

// Session is a storefront visitor session. Payloads are opaque JSON documents.
type Session struct {
	SessionID    string          `json:"session_id"`
	UserData     json.RawMessage `json:"user_data,omitempty"`
	PersonalInfo json.RawMessage `json:"personal_info,omitempty"`
	ExpiresAt    time.Time       `json:"expires_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IsExpired checks if the session has expired at the given moment
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Summary returns the part of the session exposed by analytics
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		SessionID:    s.SessionID,
		UserData:     s.UserData,
		PersonalInfo: s.PersonalInfo,
		ExpiresAt:    s.ExpiresAt,
	}
}
