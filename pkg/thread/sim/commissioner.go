package sim

import (
	"time"

	"github.com/backkem/basestation/pkg/thread"
)

// joinerEntry is a joiner allowed by CommissionerAddJoiner. A nil id accepts
// any joiner.
type joinerEntry struct {
	id      *thread.ExtAddress
	pskd    string
	expires time.Time
}

func (e *joinerEntry) matches(id thread.ExtAddress) bool {
	return e.id == nil || *e.id == id
}

// CommissionerStart implements thread.Commissioner. The commissioner petitions
// and becomes active on the following tasks.
func (s *Stack) CommissionerStart(onState thread.CommissionerStateFunc, onJoiner thread.JoinerEventFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.role.IsAttached() {
		return thread.ErrorInvalidState
	}
	if s.commState != thread.CommissionerDisabled {
		return thread.ErrorAlready
	}

	s.commStateCb = onState
	s.joinerCb = onJoiner
	s.commState = thread.CommissionerPetitioning
	s.postCommissionerStateLocked(thread.CommissionerPetitioning)

	s.Post(func() {
		s.mu.Lock()
		if s.commState != thread.CommissionerPetitioning {
			s.mu.Unlock()
			return
		}
		s.commState = thread.CommissionerActive
		s.postCommissionerStateLocked(thread.CommissionerActive)
		s.notifyLocked(thread.ChangedCommissionerState)
		s.mu.Unlock()
	})
	return nil
}

// postCommissionerStateLocked queues a state callback. Must be called with mu held.
func (s *Stack) postCommissionerStateLocked(state thread.CommissionerState) {
	cb := s.commStateCb
	if cb == nil {
		return
	}
	s.Post(func() { cb(state) })
}

// CommissionerState implements thread.Commissioner.
func (s *Stack) CommissionerState() thread.CommissionerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commState
}

// CommissionerAddJoiner implements thread.Commissioner. An existing entry for
// the same id is replaced.
func (s *Stack) CommissionerAddJoiner(id *thread.ExtAddress, pskd string, timeout time.Duration) error {
	if err := thread.ValidatePSKd(pskd); err != nil {
		return err
	}
	if timeout <= 0 {
		return thread.ErrorInvalidArgs
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commState != thread.CommissionerActive {
		return thread.ErrorInvalidState
	}

	entry := &joinerEntry{pskd: pskd, expires: s.now().Add(timeout)}
	if id != nil {
		cp := *id
		entry.id = &cp
	}

	for i, e := range s.joiners {
		if sameID(e.id, entry.id) {
			s.joiners[i] = entry
			return nil
		}
	}
	s.joiners = append(s.joiners, entry)
	return nil
}

func sameID(a, b *thread.ExtAddress) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Joiners returns the number of joiner entries.
func (s *Stack) Joiners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.joiners)
}

// SimulateJoiner runs a joiner session for id authenticating with pskd. The
// joiner events are delivered on the following tasks. It returns NotFound when
// no entry admits id and Security when pskd does not match; in the latter case
// the session still reports start and end.
func (s *Stack) SimulateJoiner(id thread.ExtAddress, pskd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commState != thread.CommissionerActive {
		return thread.ErrorInvalidState
	}

	idx := -1
	for i, e := range s.joiners {
		if e.id != nil && *e.id == id {
			idx = i
			break
		}
		if idx < 0 && e.matches(id) {
			idx = i
		}
	}
	if idx < 0 {
		return thread.ErrorNotFound
	}

	entry := s.joiners[idx]
	if entry.pskd != pskd {
		s.postJoinerEventsLocked(id, thread.JoinerEventStart, thread.JoinerEventEnd)
		return thread.ErrorSecurity
	}

	s.joiners = append(s.joiners[:idx], s.joiners[idx+1:]...)
	s.postJoinerEventsLocked(id,
		thread.JoinerEventStart,
		thread.JoinerEventConnected,
		thread.JoinerEventFinalize,
		thread.JoinerEventEnd,
		thread.JoinerEventRemoved,
	)
	return nil
}

// ExpireJoiners removes entries whose timeout has elapsed and reports them as
// removed. It returns the number removed.
func (s *Stack) ExpireJoiners() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.joiners[:0]
	removed := 0
	for _, e := range s.joiners {
		if now.Before(e.expires) {
			kept = append(kept, e)
			continue
		}
		removed++
		cb := s.joinerCb
		id := e.id
		if cb != nil {
			s.Post(func() { cb(thread.JoinerEventRemoved, id) })
		}
	}
	clear(s.joiners[len(kept):])
	s.joiners = kept
	return removed
}

func (s *Stack) postJoinerEventsLocked(id thread.ExtAddress, events ...thread.JoinerEvent) {
	cb := s.joinerCb
	if cb == nil {
		return
	}
	for _, ev := range events {
		s.Post(func() {
			jid := id
			cb(ev, &jid)
		})
	}
}
