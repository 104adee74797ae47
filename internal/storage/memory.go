package storage

import (
	"context"
	"slices"
	"sync"

	"xjsf/internal/models"
)

// MemorySource holds a roster in process. It serves embedded hosts and
// tests that build their roster in code.
type MemorySource struct {
	mu     sync.RWMutex
	roster *models.Roster
}

// NewMemorySource starts with a copy of roster, which may be nil.
func NewMemorySource(roster *models.Roster) *MemorySource {
	return &MemorySource{roster: cloneRoster(roster)}
}

func (m *MemorySource) LoadRoster(context.Context) (*models.Roster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRoster(m.roster), nil
}

// SaveRoster replaces the held roster with a copy of roster.
func (m *MemorySource) SaveRoster(_ context.Context, roster *models.Roster) error {
	if roster != nil {
		if err := roster.Validate(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roster = cloneRoster(roster)
	return nil
}

// PutClient adds entry, replacing any entry with the same name.
func (m *MemorySource) PutClient(entry models.RosterEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roster == nil {
		m.roster = &models.Roster{}
	}
	entry = cloneEntry(entry)
	i := slices.IndexFunc(m.roster.Clients, func(e models.RosterEntry) bool { return e.Name == entry.Name })
	if i >= 0 {
		m.roster.Clients[i] = entry
		return
	}
	m.roster.Clients = append(m.roster.Clients, entry)
}

func (m *MemorySource) Close() error { return nil }

func cloneRoster(r *models.Roster) *models.Roster {
	if r == nil {
		return nil
	}
	out := &models.Roster{Authentication: r.Authentication}
	for _, e := range r.Clients {
		out.Clients = append(out.Clients, cloneEntry(e))
	}
	return out
}

func cloneEntry(e models.RosterEntry) models.RosterEntry {
	return models.RosterEntry{
		Name:        e.Name,
		Password:    clonePtr(e.Password),
		MinuteLimit: clonePtr(e.MinuteLimit),
		HourLimit:   clonePtr(e.HourLimit),
		DayLimit:    clonePtr(e.DayLimit),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
