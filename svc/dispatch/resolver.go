package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/channel"
)

// Targets maps each channel to the addresses that should receive a message.
// Channels without addresses are never present.
type Targets map[channel.Channel][]string

// Count returns the total number of (channel, address) pairs.
func (t Targets) Count() int {
	n := 0
	for _, addrs := range t {
		n += len(addrs)
	}
	return n
}

// Resolver computes the recipients of a template.
type Resolver struct {
	oracle RoleOracle
}

// NewResolver creates a resolver. A nil oracle makes admin resolution fail
// with ErrResolution while the payload-addressed roles still resolve.
func NewResolver(oracle RoleOracle) *Resolver {
	return &Resolver{oracle: oracle}
}

// Resolve returns the deduplicated addresses per channel for tmpl. The
// actor's addresses are removed from every channel.
//
// When the role oracle fails for a channel only the admin addresses for
// that channel are missing; the partial result is returned together with
// an error wrapping ErrResolution.
func (r *Resolver) Resolve(ctx context.Context, tmpl Template, payload map[string]string, actor Addresses) (Targets, error) {
	if !tmpl.Targeted() {
		return Targets{}, nil
	}

	var recipients []Recipient
	for _, role := range []struct {
		role Role
		on   bool
	}{
		{RoleClient, tmpl.SendToClient},
		{RoleAssigned, tmpl.SendToAssigned},
		{RoleContact, tmpl.SendToContact},
	} {
		if !role.on {
			continue
		}
		if addrs := AddressesFromPayload(payload, role.role); !addrs.IsZero() {
			recipients = append(recipients, Recipient{Role: role.role, Addresses: addrs})
		}
	}

	targets := make(Targets, len(tmpl.Channels))
	var errs []error

	for _, ch := range tmpl.Channels {
		set := newAddressSet(ch)

		if tmpl.SendToAdmins {
			admins, err := r.admins(ctx, ch)
			if err != nil {
				errs = append(errs, err)
			}
			for _, addr := range admins {
				set.add(addr)
			}
		}
		for _, rc := range recipients {
			set.add(rc.Addresses.For(ch))
		}

		set.remove(actor.For(ch))

		if len(set.items) > 0 {
			targets[ch] = set.items
		}
	}

	return targets, errors.Join(errs...)
}

func (r *Resolver) admins(ctx context.Context, ch channel.Channel) ([]string, error) {
	if r.oracle == nil {
		return nil, fmt.Errorf("%w: no role oracle configured", ErrResolution)
	}
	addrs, err := r.oracle.AddressesForRole(ctx, string(RoleAdmin), ch)
	if err != nil {
		return nil, fmt.Errorf("%w: %s addresses of %s: %w", ErrResolution, ch, RoleAdmin, err)
	}
	return addrs, nil
}

// addressSet keeps addresses in insertion order, unique by normalized form.
type addressSet struct {
	ch    channel.Channel
	keys  map[string]struct{}
	items []string
}

func newAddressSet(ch channel.Channel) *addressSet {
	return &addressSet{ch: ch, keys: make(map[string]struct{})}
}

func (s *addressSet) add(addr string) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	key := channel.Normalize(s.ch, addr)
	if _, ok := s.keys[key]; ok {
		return
	}
	s.keys[key] = struct{}{}
	s.items = append(s.items, addr)
}

func (s *addressSet) remove(addr string) {
	if strings.TrimSpace(addr) == "" {
		return
	}
	key := channel.Normalize(s.ch, addr)
	if _, ok := s.keys[key]; !ok {
		return
	}
	delete(s.keys, key)
	s.items = slices.DeleteFunc(s.items, func(item string) bool {
		return channel.Normalize(s.ch, item) == key
	})
}

// memoOracle remembers answers, including failures, for the lifetime of
// one dispatch so templates sharing an event type ask once per
// (role, channel).
type memoOracle struct {
	next RoleOracle
	mu   sync.Mutex
	seen map[memoKey]memoValue
}

type memoKey struct {
	role string
	ch   channel.Channel
}

type memoValue struct {
	addrs []string
	err   error
}

func newMemoOracle(next RoleOracle) RoleOracle {
	if next == nil {
		return nil
	}
	return &memoOracle{next: next, seen: make(map[memoKey]memoValue)}
}

func (m *memoOracle) AddressesForRole(ctx context.Context, role string, ch channel.Channel) ([]string, error) {
	key := memoKey{role: role, ch: ch}

	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.seen[key]; ok {
		return v.addrs, v.err
	}
	addrs, err := m.next.AddressesForRole(ctx, role, ch)
	m.seen[key] = memoValue{addrs: addrs, err: err}
	return addrs, err
}
