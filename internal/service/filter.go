package service

import (
	"sync"

	"github.com/greenbasket/storefront/internal/model"
)

// FilterService holds each browsing session's search string and
// selected category. Purely local: no remote calls, no failure mode.
// State lives for the whole session and only changes on explicit user
// action.
type FilterService struct {
	mu     sync.Mutex
	states map[string]model.FilterState
}

func NewFilterService() *FilterService {
	return &FilterService{states: make(map[string]model.FilterState)}
}

func (s *FilterService) Current(sessionID string) model.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(sessionID)
}

func (s *FilterService) SetSearch(sessionID, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(sessionID)
	st.Search = query
	s.states[sessionID] = st
}

func (s *FilterService) SetCategory(sessionID, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(sessionID)
	st.Category = category
	s.states[sessionID] = st
}

func (s *FilterService) Reset(sessionID string) {
	s.mu.Lock()
	delete(s.states, sessionID)
	s.mu.Unlock()
}

func (s *FilterService) stateLocked(sessionID string) model.FilterState {
	if st, ok := s.states[sessionID]; ok {
		return st
	}
	return model.FilterState{Category: model.AllCategories}
}
