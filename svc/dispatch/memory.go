package dispatch

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/channel"
)

// MemoryTemplateStore is an in-memory TemplateStore.
// Suitable for development, tests and file-based template sets.
type MemoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewMemoryTemplateStore creates a store holding templates.
func NewMemoryTemplateStore(templates ...Template) *MemoryTemplateStore {
	s := &MemoryTemplateStore{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		s.templates[t.ID] = t
	}
	return s
}

// Put adds or replaces a template.
func (s *MemoryTemplateStore) Put(t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.templates[t.ID]; ok {
		t.CreatedAt = existing.CreatedAt
	} else if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	s.templates[t.ID] = t
	return nil
}

// ListActive returns the active templates for eventType ordered by ID.
func (s *MemoryTemplateStore) ListActive(_ context.Context, eventType string) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Template
	for _, t := range s.templates {
		if t.IsActive && t.EventType == eventType {
			out = append(out, cloneTemplate(t))
		}
	}
	slices.SortFunc(out, func(a, b Template) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *MemoryTemplateStore) Get(_ context.Context, id string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return Template{}, ErrTemplateNotFound
	}
	return cloneTemplate(t), nil
}

func cloneTemplate(t Template) Template {
	t.Channels = slices.Clone(t.Channels)
	return t
}

// MemoryRoleOracle is an in-memory RoleOracle keyed by role and channel.
type MemoryRoleOracle struct {
	mu    sync.RWMutex
	roles map[string]map[channel.Channel][]string
}

func NewMemoryRoleOracle() *MemoryRoleOracle {
	return &MemoryRoleOracle{roles: make(map[string]map[channel.Channel][]string)}
}

// Add registers a person's addresses under role.
func (o *MemoryRoleOracle) Add(role Role, addrs Addresses) *MemoryRoleOracle {
	o.mu.Lock()
	defer o.mu.Unlock()

	byChannel, ok := o.roles[string(role)]
	if !ok {
		byChannel = make(map[channel.Channel][]string)
		o.roles[string(role)] = byChannel
	}
	for _, ch := range channel.All() {
		if a := addrs.For(ch); a != "" {
			byChannel[ch] = append(byChannel[ch], a)
		}
	}
	return o
}

func (o *MemoryRoleOracle) AddressesForRole(_ context.Context, role string, ch channel.Channel) ([]string, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.roles[role][ch]), nil
}

// MemoryDeliveryLog is an in-memory, append-only DeliveryLog.
type MemoryDeliveryLog struct {
	mu      sync.RWMutex
	entries []LogEntry
	ids     map[string]struct{}
}

func NewMemoryDeliveryLog() *MemoryDeliveryLog {
	return &MemoryDeliveryLog{ids: make(map[string]struct{})}
}

var errDuplicateLogEntry = errors.New("dispatch.duplicate_log_entry")

func (l *MemoryDeliveryLog) Insert(_ context.Context, entry LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[entry.ID]; ok {
		return errDuplicateLogEntry
	}
	l.ids[entry.ID] = struct{}{}
	l.entries = append(l.entries, entry)
	return nil
}

// Entries returns a copy of all entries in insertion order.
func (l *MemoryDeliveryLog) Entries() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// ListByReference returns the entries of one business object, newest first.
func (l *MemoryDeliveryLog) ListByReference(_ context.Context, refType, refID string) ([]LogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []LogEntry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if e := l.entries[i]; e.ReferenceType == refType && e.ReferenceID == refID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the number of entries.
func (l *MemoryDeliveryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
