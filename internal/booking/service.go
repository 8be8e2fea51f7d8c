package booking

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/auditorium-booking-backend/internal/metrics"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/user"
)

// UserReader resolves the organizer snapshot taken at creation.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Options tunes the service policies.
type Options struct {
	// BlockConflictsOnCreate refuses new requests that overlap an approved
	// booking. When false, overlaps are allowed as pending and only
	// approval is blocked.
	BlockConflictsOnCreate bool
	// LockWait bounds how long an operation waits for its locks.
	LockWait time.Duration
	Now      func() time.Time
}

// Dashboard is the admin overview: status buckets in admin order, counters,
// and the approved bookings each pending request would collide with.
// Monthly counts submissions in Month; Scheduled counts approved bookings
// held during it.
type Dashboard struct {
	Pending   []*Booking
	Approved  []*Booking
	Rejected  []*Booking
	Counts    Counts
	Month     YearMonth
	Monthly   int
	Scheduled int
	Conflicts map[string][]*Booking
}

type Service interface {
	Create(ctx context.Context, req Requester, in Input) (*Booking, error)
	Get(ctx context.Context, id string) (*Booking, error)
	ListAll(ctx context.Context, status Status) ([]*Booking, error)
	ListForUser(ctx context.Context, userID string) ([]*Booking, error)
	ListForMonth(ctx context.Context, month YearMonth) ([]*Booking, error)
	ListForDay(ctx context.Context, date string) ([]*Booking, error)
	Update(ctx context.Context, id string, req Requester, p Patch) (*Booking, error)
	Delete(ctx context.Context, id string, req Requester) error
	Transition(ctx context.Context, id string, req Requester, action Action, adminNotes *string) (*Booking, error)
	// Conflicts lists approved bookings overlapping id. Only ErrNotFound is
	// reported; any other failure is logged and yields an empty list.
	Conflicts(ctx context.Context, id string) ([]*Booking, error)
	Dashboard(ctx context.Context, month YearMonth) (*Dashboard, error)
	UserStats(ctx context.Context, userID string) (Counts, error)
}

type service struct {
	repo   Repository
	users  UserReader
	locker Locker
	opts   Options
	logger zerolog.Logger
}

func NewService(repo Repository, users UserReader, locker Locker, opts Options, logger zerolog.Logger) Service {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if opts.LockWait <= 0 {
		opts.LockWait = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{
		repo:   repo,
		users:  users,
		locker: locker,
		opts:   opts,
		logger: logger.With().Str("component", "booking").Logger(),
	}
}

func (s *service) now() time.Time {
	return s.opts.Now().UTC()
}

func (s *service) Create(ctx context.Context, req Requester, in Input) (*Booking, error) {
	u, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, storageErr(err)
	}

	b, err := ValidateNewBooking(in, Organizer{
		UserID:     u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Department: u.Department,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if s.opts.BlockConflictsOnCreate {
		unlock, err := s.lock(ctx, dateKey(b.Date))
		if err != nil {
			return nil, err
		}
		defer unlock()

		err = s.repo.WithTx(ctx, func(tx Repository) error {
			if err := lockDates(ctx, tx, b.Date); err != nil {
				return err
			}
			if err := s.checkConflicts(ctx, tx, b, "create"); err != nil {
				return err
			}
			return tx.Create(ctx, b)
		})
		if err != nil {
			return nil, storageErr(err)
		}
	} else if err := s.repo.Create(ctx, b); err != nil {
		return nil, storageErr(err)
	}

	metrics.IncBookingCreated(string(b.Status))
	s.logger.Info().
		Str("booking_id", b.ID).
		Str("user_id", b.OrganizerUserID).
		Str("date", b.Date).
		Msg("booking created")
	return b, nil
}

func (s *service) Get(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	return b, nil
}

func (s *service) ListAll(ctx context.Context, status Status) ([]*Booking, error) {
	if status != "" && !status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}
	return s.list(ctx, Filter{Status: status})
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]*Booking, error) {
	return s.list(ctx, Filter{OrganizerUserID: userID})
}

func (s *service) ListForMonth(ctx context.Context, month YearMonth) ([]*Booking, error) {
	return s.list(ctx, Filter{Month: &month})
}

func (s *service) ListForDay(ctx context.Context, date string) ([]*Booking, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": err.Error()}}
	}
	month, err := ParseYearMonth(day[:7])
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": err.Error()}}
	}

	// The calendar loads a month at a time and narrows it to the day.
	bookings, err := s.ListForMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	return BookingsForDay(bookings, day), nil
}

func (s *service) list(ctx context.Context, filter Filter) ([]*Booking, error) {
	bookings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storageErr(err)
	}
	return bookings, nil
}

func (s *service) Update(ctx context.Context, id string, req Requester, p Patch) (*Booking, error) {
	now := s.now()
	b, err := s.mutate(ctx, id, "update", func(current *Booking) (bool, error) {
		if err := authorizeEdit(current, req, p); err != nil {
			return false, err
		}

		date, start, end := current.Date, current.StartTime, current.EndTime
		if err := ApplyPatch(current, p, now); err != nil {
			return false, err
		}
		moved := current.Date != date || current.StartTime != start || current.EndTime != end

		// An approved booking must stay clear of the other approved ones,
		// and so must a moved request when creation blocks overlaps.
		return moved && (current.Status == StatusApproved || s.opts.BlockConflictsOnCreate), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("booking_id", b.ID).Str("user_id", req.UserID).Bool("admin", req.Admin).Msg("booking updated")
	return b, nil
}

// authorizeEdit lets admins edit anything and owners edit their own pending
// requests. Admin notes belong to admins only.
func authorizeEdit(b *Booking, req Requester, p Patch) error {
	if req.Admin {
		return nil
	}
	if b.OrganizerUserID != req.UserID || b.Status != StatusPending || p.AdminNotes != nil {
		return ErrForbidden
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id string, req Requester) error {
	unlock, err := s.lock(ctx, bookingKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		b, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.OrganizerUserID != req.UserID || b.Status != StatusPending {
			return ErrForbidden
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return storageErr(err)
	}

	metrics.IncBookingDeleted()
	s.logger.Info().Str("booking_id", id).Str("user_id", req.UserID).Msg("booking deleted")
	return nil
}

func (s *service) Transition(ctx context.Context, id string, req Requester, action Action, adminNotes *string) (*Booking, error) {
	if !req.Admin {
		metrics.IncTransition(string(action), "forbidden")
		return nil, ErrForbidden
	}

	now := s.now()
	b, err := s.mutate(ctx, id, string(action), func(current *Booking) (bool, error) {
		if err := Apply(current, action, adminNotes, now); err != nil {
			return false, err
		}
		return action == ActionApprove, nil
	})
	metrics.IncTransition(string(action), transitionResult(err))
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("booking_id", b.ID).
		Str("action", string(action)).
		Str("status", string(b.Status)).
		Str("user_id", req.UserID).
		Msg("booking transitioned")
	return b, nil
}

func transitionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrTimeConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// mutate serializes a change to one booking. fn edits the booking in place
// and reports whether the result must be checked against the approved pool
// of its date. fn runs once on a snapshot to learn which dates to lock and
// again on the row locked inside the transaction, which is what gets saved.
// The checked dates are also locked in the database so instances sharing
// no Locker still serialize.
func (s *service) mutate(ctx context.Context, id, op string, fn func(current *Booking) (bool, error)) (*Booking, error) {
	unlock, err := s.lock(ctx, bookingKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	snapshot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	next := snapshot.Clone()
	if check, err := fn(next); err == nil && check {
		unlockDates, err := s.lock(ctx, dateKeys(snapshot.Date, next.Date)...)
		if err != nil {
			return nil, err
		}
		defer unlockDates()
	}

	var result *Booking
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		current, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		date := current.Date
		check, err := fn(current)
		if err != nil {
			return err
		}
		if check {
			if err := lockDates(ctx, tx, date, current.Date); err != nil {
				return err
			}
			if err := s.checkConflicts(ctx, tx, current, op); err != nil {
				return err
			}
		}
		if err := tx.Update(ctx, current); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return result, nil
}

func (s *service) checkConflicts(ctx context.Context, tx Repository, candidate *Booking, op string) error {
	pool, err := tx.List(ctx, Filter{Date: candidate.Date, Status: StatusApproved})
	if err != nil {
		return err
	}
	if conflicts := FindConflicts(candidate, pool); len(conflicts) > 0 {
		metrics.IncConflictRejected(op)
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

func (s *service) Conflicts(ctx context.Context, id string) ([]*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		s.logger.Warn().Err(err).Str("booking_id", id).Msg("conflict check skipped")
		return []*Booking{}, nil
	}

	pool, err := s.repo.List(ctx, Filter{Date: b.Date, Status: StatusApproved})
	if err != nil {
		s.logger.Warn().Err(err).Str("booking_id", id).Msg("conflict check skipped")
		return []*Booking{}, nil
	}
	return FindConflicts(b, pool), nil
}

func (s *service) Dashboard(ctx context.Context, month YearMonth) (*Dashboard, error) {
	all, err := s.list(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	pending, approved, rejected := Buckets(all)
	conflicts := make(map[string][]*Booking)
	for _, b := range pending {
		if c := FindConflicts(b, approved); len(c) > 0 {
			conflicts[b.ID] = c
		}
	}

	return &Dashboard{
		Pending:   pending,
		Approved:  approved,
		Rejected:  rejected,
		Counts:    CountByStatus(all),
		Month:     month,
		Monthly:   MonthlyCount(all, month),
		Scheduled: len(BookingsForMonth(approved, month)),
		Conflicts: conflicts,
	}, nil
}

func (s *service) UserStats(ctx context.Context, userID string) (Counts, error) {
	bookings, err := s.list(ctx, Filter{OrganizerUserID: userID})
	if err != nil {
		return Counts{}, err
	}
	return CountByStatus(bookings), nil
}

// lock takes keys in order, waiting at most LockWait.
func (s *service) lock(ctx context.Context, keys ...string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.opts.LockWait)
	defer cancel()

	start := time.Now()
	unlock, err := lockAll(waitCtx, s.locker, keys...)
	metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperror.Wrap(err, ErrBusy.Code, ErrBusy.Message)
	}
	return unlock, nil
}

// lockDates takes the transaction-scoped date locks in sorted order.
func lockDates(ctx context.Context, tx Repository, dates ...string) error {
	for _, d := range sortedDates(dates) {
		if err := tx.LockDate(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// dateKeys returns the distinct date lock keys in sorted order.
func dateKeys(dates ...string) []string {
	dates = sortedDates(dates)
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = dateKey(d)
	}
	return keys
}

func sortedDates(dates []string) []string {
	dates = slices.Clone(dates)
	slices.Sort(dates)
	return slices.Compact(dates)
}

// storageErr passes application errors through and masks everything else.
func storageErr(err error) error {
	if _, ok := apperror.From(err); ok {
		return err
	}
	return apperror.Wrap(err, ErrStorage.Code, ErrStorage.Message)
}
