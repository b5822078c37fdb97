package session

import (
	"context"
	"sync"
	"time"

	"taxi-bot/internal/auth"
	"taxi-bot/internal/models"
)

// State is what a user's next free-text message will be taken as.
type State int

const (
	Idle State = iota
	AwaitingAddress
	AwaitingManagerID
	AwaitingRemoveManagerID
	AwaitingDeleteIndex
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingAddress:
		return "awaiting_address"
	case AwaitingManagerID:
		return "awaiting_manager_id"
	case AwaitingRemoveManagerID:
		return "awaiting_remove_manager_id"
	case AwaitingDeleteIndex:
		return "awaiting_delete_index"
	default:
		return "unknown"
	}
}

// Gate is the part of the authorizer the tracker consults before prompting.
type Gate interface {
	IsManager(ctx context.Context, id models.UserID) (bool, error)
	Bootstrap(ctx context.Context) (bool, error)
}

// Pending is an issued prompt waiting for its reply.
type Pending struct {
	State State
	Since time.Time
}

// Tracker holds at most one pending prompt per user. A new prompt replaces
// the old one. Entries are independent, so no lock spans users.
type Tracker struct {
	gate    Gate
	timeout time.Duration
	now     func() time.Time
	pending sync.Map // models.UserID -> Pending
}

// New returns a tracker. timeout 0 keeps prompts until answered or cancelled.
func New(gate Gate, timeout time.Duration) *Tracker {
	return &Tracker{gate: gate, timeout: timeout, now: time.Now}
}

// Prompt records that user's next message answers state. Asking for a
// manager id is open to everyone in bootstrap mode; every other prompt needs
// a manager.
func (t *Tracker) Prompt(ctx context.Context, user models.UserID, state State) error {
	if state == Idle {
		t.pending.Delete(user)
		return nil
	}
	if err := t.allow(ctx, user, state); err != nil {
		return err
	}
	t.pending.Store(user, Pending{State: state, Since: t.now()})
	return nil
}

func (t *Tracker) allow(ctx context.Context, user models.UserID, state State) error {
	ok, err := t.gate.IsManager(ctx, user)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if state == AwaitingManagerID {
		boot, err := t.gate.Bootstrap(ctx)
		if err != nil {
			return err
		}
		if boot {
			return nil
		}
	}
	return auth.ErrDenied
}

// Take consumes the user's pending prompt, returning them to Idle.
func (t *Tracker) Take(user models.UserID) (Pending, bool) {
	v, ok := t.pending.LoadAndDelete(user)
	if !ok {
		return Pending{}, false
	}
	p := v.(Pending)
	if t.expired(p) {
		return Pending{}, false
	}
	return p, true
}

// Peek reports the user's state without consuming it.
func (t *Tracker) Peek(user models.UserID) State {
	v, ok := t.pending.Load(user)
	if !ok {
		return Idle
	}
	p := v.(Pending)
	if t.expired(p) {
		t.pending.CompareAndDelete(user, p)
		return Idle
	}
	return p.State
}

// Cancel drops a pending prompt and reports whether there was one.
func (t *Tracker) Cancel(user models.UserID) bool {
	v, ok := t.pending.LoadAndDelete(user)
	return ok && !t.expired(v.(Pending))
}

func (t *Tracker) expired(p Pending) bool {
	return t.timeout > 0 && t.now().Sub(p.Since) > t.timeout
}
