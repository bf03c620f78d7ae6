// Package session ties requests to the owner whose ledger they may read.
package session

import (
	"sync/atomic"

	"gagyebu/internal/core"
)

// Session is an authenticated owner. After End every OwnerID call fails, so
// nothing else is read for that owner.
type Session struct {
	ownerID string
	ended   atomic.Bool
}

func New(ownerID string) (*Session, error) {
	if ownerID == "" {
		return nil, core.ErrEmptyOwner
	}
	return &Session{ownerID: ownerID}, nil
}

func (s *Session) OwnerID() (string, error) {
	if s == nil || s.ended.Load() {
		return "", core.ErrSignedOut
	}
	return s.ownerID, nil
}

// End signs the owner out. It is safe to call more than once.
func (s *Session) End() {
	if s != nil {
		s.ended.Store(true)
	}
}

func (s *Session) Active() bool {
	return s != nil && !s.ended.Load()
}
