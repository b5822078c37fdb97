package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"taxi-bot/internal/auth"
	"taxi-bot/internal/grouping"
	"taxi-bot/internal/ledger"
	"taxi-bot/internal/metrics"
	"taxi-bot/internal/models"
	"taxi-bot/internal/session"
	"taxi-bot/internal/zones"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArgument    = errors.New("bad argument")
	ErrNothingPending = errors.New("nothing is pending")
)

// UnknownPolicy decides what happens to an address no zone matched.
type UnknownPolicy string

const (
	// StoreUnknown keeps the entry with ZoneUnknown; it rides last.
	StoreUnknown UnknownPolicy = "store"
	// RejectUnknown refuses the entry so the operator resubmits it.
	RejectUnknown UnknownPolicy = "reject"
)

func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch UnknownPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StoreUnknown:
		return StoreUnknown, nil
	case RejectUnknown:
		return RejectUnknown, nil
	default:
		return "", fmt.Errorf("unknown zone policy %q", s)
	}
}

// Event is one inbound message. Command is the command name without the
// slash, empty for plain text; Args is the text after the command.
type Event struct {
	UserID  models.UserID
	Text    string
	Command string
	Args    string
}

type Deps struct {
	Auth       *auth.Authorizer
	Ledger     *ledger.Ledger
	Sessions   *session.Tracker
	Classifier *zones.Classifier
	Clock      ledger.DayClock
	Capacity   int
	Unknown    UnknownPolicy
	Metrics    metrics.Recorder
	Log        zerolog.Logger
}

// Service is the single dispatch function every transport calls into.
type Service struct {
	auth       *auth.Authorizer
	ledger     *ledger.Ledger
	sessions   *session.Tracker
	classifier *zones.Classifier
	clock      ledger.DayClock
	capacity   int
	unknown    UnknownPolicy
	rec        metrics.Recorder
	log        zerolog.Logger

	commands map[string]handler
}

type handler func(ctx context.Context, user models.UserID, args string) (Reply, error)

func New(d Deps) (*Service, error) {
	if d.Auth == nil || d.Ledger == nil || d.Sessions == nil || d.Classifier == nil {
		return nil, errors.New("dispatch: missing dependency")
	}
	if d.Capacity < 1 {
		return nil, grouping.ErrCapacity
	}
	if d.Unknown == "" {
		d.Unknown = StoreUnknown
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop{}
	}
	s := &Service{
		auth:       d.Auth,
		ledger:     d.Ledger,
		sessions:   d.Sessions,
		classifier: d.Classifier,
		clock:      d.Clock,
		capacity:   d.Capacity,
		unknown:    d.Unknown,
		rec:        d.Metrics,
		log:        d.Log,
	}
	s.commands = map[string]handler{
		"start":      s.help,
		"help":       s.help,
		"add":        s.add,
		"del":        s.del,
		"delete":     s.del,
		"undo":       s.undo,
		"list":       s.list,
		"addman":     s.addManager,
		"addmanager": s.addManager,
		"delman":     s.delManager,
		"delmanager": s.delManager,
		"managers":   s.managers,
		"clear":      s.clear,
		"export":     s.export,
	}
	return s, nil
}

// Handle routes an event. A pending prompt consumes the user's next message
// whatever it contains; only the cancel command is treated specially.
func (s *Service) Handle(ctx context.Context, ev Event) (Reply, error) {
	cmd := strings.ToLower(strings.TrimSpace(ev.Command))
	op := cmd

	var (
		r   Reply
		err error
	)
	switch p, pending := s.take(ev.UserID, cmd); {
	case cmd == "cancel":
		r, err = s.cancel(ev.UserID)
	case pending:
		op = "reply_" + p.State.String()
		r, err = s.continueWith(ctx, ev.UserID, p.State, ev.Text)
		r.Answering = p.State
	case cmd == "":
		op = "text"
		err = ErrNothingPending
	default:
		h, ok := s.commands[cmd]
		if !ok {
			err = fmt.Errorf("%w: /%s", ErrUnknownCommand, cmd)
			break
		}
		r, err = h(ctx, ev.UserID, strings.TrimSpace(ev.Args))
	}

	s.rec.RecordOperation(op, err)
	logEv := s.log.Info()
	if err != nil && !isUserError(err) {
		logEv = s.log.Error()
	}
	logEv.Int64("user", int64(ev.UserID)).Str("op", op).Err(err).Msg("handled")
	return r, err
}

func (s *Service) take(user models.UserID, cmd string) (session.Pending, bool) {
	if cmd == "cancel" {
		return session.Pending{}, false
	}
	return s.sessions.Take(user)
}

func (s *Service) continueWith(ctx context.Context, user models.UserID, st session.State, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	switch st {
	case session.AwaitingAddress:
		return s.addEntry(ctx, user, text)
	case session.AwaitingDeleteIndex:
		return s.removeAt(ctx, user, text)
	case session.AwaitingManagerID:
		return s.enroll(ctx, user, text)
	case session.AwaitingRemoveManagerID:
		return s.dismiss(ctx, user, text)
	default:
		return Reply{}, ErrNothingPending
	}
}

func (s *Service) cancel(user models.UserID) (Reply, error) {
	if !s.sessions.Cancel(user) {
		return Reply{}, ErrNothingPending
	}
	return Reply{Kind: KindCancelled}, nil
}

func (s *Service) requireManager(ctx context.Context, user models.UserID) error {
	ok, err := s.auth.IsManager(ctx, user)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrDenied
	}
	return nil
}

func (s *Service) prompt(ctx context.Context, user models.UserID, st session.State) (Reply, error) {
	if err := s.sessions.Prompt(ctx, user, st); err != nil {
		return Reply{}, err
	}
	return Reply{Kind: KindPrompt, Prompt: st}, nil
}

// ---------- commands ----------

func (s *Service) help(ctx context.Context, user models.UserID, _ string) (Reply, error) {
	isMgr, err := s.auth.IsManager(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	boot, err := s.auth.Bootstrap(ctx)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Kind: KindHelp, Manager: isMgr, Bootstrap: boot}, nil
}

func (s *Service) add(ctx context.Context, user models.UserID, args string) (Reply, error) {
	if args == "" {
		return s.prompt(ctx, user, session.AwaitingAddress)
	}
	return s.addEntry(ctx, user, args)
}

func (s *Service) del(ctx context.Context, user models.UserID, args string) (Reply, error) {
	if args == "" {
		return s.prompt(ctx, user, session.AwaitingDeleteIndex)
	}
	return s.removeAt(ctx, user, args)
}

func (s *Service) undo(ctx context.Context, user models.UserID, _ string) (Reply, error) {
	if err := s.requireManager(ctx, user); err != nil {
		return Reply{}, err
	}
	day := s.clock.Today()
	e, err := s.ledger.RemoveLast(ctx, day)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Kind: KindRemoved, Day: day, Entry: e}, nil
}

func (s *Service) list(ctx context.Context, _ models.UserID, args string) (Reply, error) {
	day := s.clock.Today()
	if args != "" {
		if !ledger.ValidDay(args) {
			return Reply{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD day", ErrBadArgument, args)
		}
		day = args
	}
	sheet, err := s.Sheet(ctx, day)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Kind: KindListing, Day: day, Sheet: sheet}, nil
}

func (s *Service) addManager(ctx context.Context, user models.UserID, args string) (Reply, error) {
	if args == "" {
		return s.prompt(ctx, user, session.AwaitingManagerID)
	}
	return s.enroll(ctx, user, args)
}

func (s *Service) delManager(ctx context.Context, user models.UserID, args string) (Reply, error) {
	if args == "" {
		return s.prompt(ctx, user, session.AwaitingRemoveManagerID)
	}
	return s.dismiss(ctx, user, args)
}

func (s *Service) managers(ctx context.Context, user models.UserID, _ string) (Reply, error) {
	if err := s.requireManager(ctx, user); err != nil {
		return Reply{}, err
	}
	ids, err := s.auth.Managers(ctx)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Kind: KindManagers, Managers: ids}, nil
}

func (s *Service) clear(ctx context.Context, user models.UserID, _ string) (Reply, error) {
	if err := s.requireManager(ctx, user); err != nil {
		return Reply{}, err
	}
	day := s.clock.Today()
	n, err := s.ledger.Clear(ctx, day)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Kind: KindCleared, Day: day, Count: n}, nil
}

func (s *Service) export(ctx context.Context, user models.UserID, args string) (Reply, error) {
	if err := s.requireManager(ctx, user); err != nil {
		return Reply{}, err
	}
	r, err := s.list(ctx, user, args)
	if err != nil {
		return Reply{}, err
	}
	r.Kind = KindExport
	return r, nil
}

// ---------- actions ----------

func (s *Service) addEntry(ctx context.Context, user models.UserID, text string) (Reply, error) {
	if err := s.requireManager(ctx, user); err != nil {
		return Reply{}, err
	}
	if text == "" {
		return Reply{}, fmt.Errorf("%w: empty address", ErrBadArgument)
	}
	zone, zerr := s.classifier.Resolve(text)
	if zerr != nil && s.unknown == RejectUnknown {
		return Reply{}, zerr
	}

	day := s.clock.Today()
	e := models.NewEntry(text, zone, user, s.clock.Instant())
	idx, err := s.ledger.Append(ctx, day, e)
	if err != nil {
		return Reply{}, err
	}
	s.rec.RecordClassification(zone)
	return Reply{Kind: KindAdded, Day: day, Index: idx, Entry: e}, nil
}

func (s *Service) removeAt(ctx context.Context, user models.UserID, arg string) (Reply, error) {
	if err := s.requireManager(ctx, user); err != nil {
		return Reply{}, err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %q is not an entry number", ErrBadArgument, arg)
	}
	day := s.clock.Today()
	e, err := s.ledger.RemoveAt(ctx, day, idx)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Kind: KindRemoved, Day: day, Index: idx, Entry: e}, nil
}

func (s *Service) enroll(ctx context.Context, user models.UserID, arg string) (Reply, error) {
	target, err := parseUserID(arg)
	if err != nil {
		return Reply{}, err
	}
	if err := s.auth.AddManager(ctx, user, target); err != nil {
		return Reply{Target: target}, err
	}
	return Reply{Kind: KindManagerAdded, Target: target}, nil
}

func (s *Service) dismiss(ctx context.Context, user models.UserID, arg string) (Reply, error) {
	target, err := parseUserID(arg)
	if err != nil {
		return Reply{}, err
	}
	if err := s.auth.RemoveManager(ctx, user, target); err != nil {
		return Reply{Target: target}, err
	}
	return Reply{Kind: KindManagerRemoved, Target: target}, nil
}

// Sheet returns a day's entries and the vehicle manifests built from them.
func (s *Service) Sheet(ctx context.Context, day string) (DaySheet, error) {
	entries, err := s.ledger.List(ctx, day)
	if err != nil {
		return DaySheet{}, err
	}
	ms, err := grouping.Group(entries, s.capacity)
	if err != nil {
		return DaySheet{}, err
	}
	return DaySheet{Day: day, Entries: entries, Manifests: ms}, nil
}

// Today is the current operational day.
func (s *Service) Today() string { return s.clock.Today() }

// ZoneName is the display name of a zone.
func (s *Service) ZoneName(z models.ZoneID) string { return s.classifier.ZoneName(z) }

func parseUserID(s string) (models.UserID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a user id", ErrBadArgument, s)
	}
	return models.UserID(id), nil
}

// isUserError reports errors caused by the request rather than the system.
func isUserError(err error) bool {
	for _, target := range []error{
		auth.ErrDenied, auth.ErrNotFound, auth.ErrAlreadyManager,
		ledger.ErrEmpty, ledger.ErrOutOfRange,
		zones.ErrUnclassifiable, zones.ErrMalformedInput,
		ErrUnknownCommand, ErrBadArgument, ErrNothingPending,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
