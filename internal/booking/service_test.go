package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/auditorium-booking-backend/internal/user"
)

// memRepo is an in-memory Repository with read-committed transactions.
// Reads see committed rows plus the transaction's own writes, writes are
// buffered until commit, and GetByIDForUpdate holds a row lock until the
// transaction ends. Nothing else serializes concurrent transactions.
type memRepo struct {
	mu       sync.Mutex
	rows     map[string]*Booking
	order    []string
	failList error

	rowLocks *LocalLocker
	// dateLocks backs LockDate when set; nil leaves LockDate non-blocking.
	dateLocks *LocalLocker
	// afterPoolRead runs once a transaction has read the approved pool of a
	// date, before the result is returned.
	afterPoolRead func()
}

func newMemRepo(seed ...*Booking) *memRepo {
	r := &memRepo{rows: make(map[string]*Booking), rowLocks: NewLocalLocker()}
	for _, b := range seed {
		r.rows[b.ID] = b.Clone()
		r.order = append(r.order, b.ID)
	}
	return r
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (r *memRepo) GetByIDForUpdate(ctx context.Context, id string) (*Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *memRepo) LockDate(context.Context, string) error { return nil }

func (r *memRepo) List(_ context.Context, f Filter) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList != nil {
		return nil, r.failList
	}
	return filterRows(r.rows, r.order, f), nil
}

func filterRows(rows map[string]*Booking, order []string, f Filter) []*Booking {
	out := make([]*Booking, 0)
	for _, id := range order {
		b, ok := rows[id]
		if !ok || b == nil {
			continue
		}
		if f.OrganizerUserID != "" && b.OrganizerUserID != f.OrganizerUserID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.Date != "" && b.Date != f.Date {
			continue
		}
		if f.Month != nil && !f.Month.ContainsDate(b.Date) {
			continue
		}
		out = append(out, b.Clone())
	}
	slices.SortStableFunc(out, func(a, b *Booking) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.StartTime, b.StartTime)
	})
	return out
}

func (r *memRepo) Create(ctx context.Context, b *Booking) error {
	return r.WithTx(ctx, func(tx Repository) error { return tx.Create(ctx, b) })
}

func (r *memRepo) Update(ctx context.Context, b *Booking) error {
	return r.WithTx(ctx, func(tx Repository) error { return tx.Update(ctx, b) })
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	return r.WithTx(ctx, func(tx Repository) error { return tx.Delete(ctx, id) })
}

func (r *memRepo) WithTx(_ context.Context, fn func(tx Repository) error) error {
	tx := &memTx{repo: r, writes: make(map[string]*Booking), held: make(map[string]bool)}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// memTx buffers one transaction. A nil entry in writes marks a delete.
type memTx struct {
	repo    *memRepo
	writes  map[string]*Booking
	created []string
	held    map[string]bool
	unlocks []func()
}

func (t *memTx) lock(ctx context.Context, l *LocalLocker, key string) error {
	if t.held[key] {
		return nil
	}
	unlock, err := l.Lock(ctx, key)
	if err != nil {
		return err
	}
	t.held[key] = true
	t.unlocks = append(t.unlocks, unlock)
	return nil
}

func (t *memTx) release() {
	for i := len(t.unlocks) - 1; i >= 0; i-- {
		t.unlocks[i]()
	}
}

func (t *memTx) commit() {
	r := t.repo
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, t.created...)
	for id, b := range t.writes {
		if b == nil {
			delete(r.rows, id)
			r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
			continue
		}
		r.rows[id] = b
	}
}

func (t *memTx) GetByID(ctx context.Context, id string) (*Booking, error) {
	if b, ok := t.writes[id]; ok {
		if b == nil {
			return nil, ErrNotFound
		}
		return b.Clone(), nil
	}
	return t.repo.GetByID(ctx, id)
}

func (t *memTx) GetByIDForUpdate(ctx context.Context, id string) (*Booking, error) {
	if err := t.lock(ctx, t.repo.rowLocks, "row:"+id); err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

func (t *memTx) LockDate(ctx context.Context, date string) error {
	if t.repo.dateLocks == nil {
		return nil
	}
	return t.lock(ctx, t.repo.dateLocks, dateKey(date))
}

func (t *memTx) List(_ context.Context, f Filter) ([]*Booking, error) {
	r := t.repo
	r.mu.Lock()
	if r.failList != nil {
		r.mu.Unlock()
		return nil, r.failList
	}
	rows := make(map[string]*Booking, len(r.rows)+len(t.writes))
	for id, b := range r.rows {
		rows[id] = b
	}
	order := append(slices.Clone(r.order), t.created...)
	r.mu.Unlock()

	for id, b := range t.writes {
		rows[id] = b
	}
	out := filterRows(rows, order, f)

	if f.Status == StatusApproved && f.Date != "" && r.afterPoolRead != nil {
		r.afterPoolRead()
	}
	return out, nil
}

func (t *memTx) Create(_ context.Context, b *Booking) error {
	b.ID = uuid.NewString()
	t.writes[b.ID] = b.Clone()
	t.created = append(t.created, b.ID)
	return nil
}

func (t *memTx) Update(ctx context.Context, b *Booking) error {
	if _, err := t.GetByID(ctx, b.ID); err != nil {
		return err
	}
	t.writes[b.ID] = b.Clone()
	return nil
}

func (t *memTx) Delete(ctx context.Context, id string) error {
	if _, err := t.GetByID(ctx, id); err != nil {
		return err
	}
	t.writes[id] = nil
	return nil
}

func (t *memTx) WithTx(_ context.Context, fn func(tx Repository) error) error {
	return fn(t)
}

// rendezvous holds each caller until n callers have arrived or wait
// elapses, so racing transactions line up at the same point.
type rendezvous struct {
	mu      sync.Mutex
	n       int
	arrived int
	all     chan struct{}
	wait    time.Duration
}

func newRendezvous(n int, wait time.Duration) *rendezvous {
	return &rendezvous{n: n, all: make(chan struct{}), wait: wait}
}

func (g *rendezvous) await() {
	g.mu.Lock()
	g.arrived++
	if g.arrived == g.n {
		close(g.all)
	}
	g.mu.Unlock()

	select {
	case <-g.all:
	case <-time.After(g.wait):
	}
}

// noopLocker never blocks.
type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }

type stubUsers map[string]*user.User

func (s stubUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

var (
	owner    = Requester{UserID: "owner"}
	stranger = Requester{UserID: "stranger"}
	admin    = Requester{UserID: "admin", Admin: true}
)

var testUsers = stubUsers{
	"owner":    {ID: "owner", Name: "Ana", Email: "ana@campus.edu", Phone: "555-0100", Department: "Physics", Role: user.RoleStudent},
	"stranger": {ID: "stranger", Name: "Ben", Email: "ben@campus.edu", Role: user.RoleFaculty},
	"admin":    {ID: "admin", Name: "Root", Email: "root@campus.edu", Role: user.RoleAdmin},
}

func newTestService(repo Repository, opts Options) Service {
	return newTestServiceWithLocker(repo, NewLocalLocker(), opts)
}

func newTestServiceWithLocker(repo Repository, locker Locker, opts Options) Service {
	clock := testNow
	var mu sync.Mutex
	opts.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Minute)
		return clock
	}
	return NewService(repo, testUsers, locker, opts, zerolog.Nop())
}

func input(date, start, end string) Input {
	return Input{Title: "Event " + start, Date: date, StartTime: start, EndTime: end, ExpectedAttendees: "30"}
}

func mustCreate(t *testing.T, svc Service, req Requester, in Input) *Booking {
	t.Helper()
	b, err := svc.Create(context.Background(), req, in)
	require.NoError(t, err)
	return b
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo, Options{})

	b := mustCreate(t, svc, owner, input("2025-06-01", "9:00", "10:00"))
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, "09:00", b.StartTime)
	assert.Equal(t, "Ana", b.OrganizerName)
	assert.Equal(t, "555-0100", b.OrganizerPhone)
	assert.Equal(t, b.CreatedAt, b.UpdatedAt)

	stored, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, stored)

	_, err = svc.Create(ctx, owner, input("2025-06-01", "10:00", "09:00"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, Requester{UserID: "ghost"}, input("2025-06-01", "09:00", "10:00"))
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestCreateConflictPolicy(t *testing.T) {
	ctx := context.Background()
	approved := &Booking{ID: "A", Title: "A", Date: "2025-06-01", StartTime: "09:00", EndTime: "10:00", Status: StatusApproved, OrganizerUserID: "stranger"}

	t.Run("overlap allowed as pending by default", func(t *testing.T) {
		svc := newTestService(newMemRepo(approved), Options{})
		b := mustCreate(t, svc, owner, input("2025-06-01", "09:30", "10:30"))
		assert.Equal(t, StatusPending, b.Status)
	})

	t.Run("blocking policy refuses overlap", func(t *testing.T) {
		repo := newMemRepo(approved)
		svc := newTestService(repo, Options{BlockConflictsOnCreate: true})

		_, err := svc.Create(ctx, owner, input("2025-06-01", "09:30", "10:30"))
		assert.ErrorIs(t, err, ErrTimeConflict)
		var cerr *ConflictError
		require.True(t, errors.As(err, &cerr))
		require.Len(t, cerr.Conflicts, 1)
		assert.Equal(t, "A", cerr.Conflicts[0].ID)

		all, err := svc.ListAll(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 1)

		mustCreate(t, svc, owner, input("2025-06-01", "10:00", "11:00"))
	})

	t.Run("blocking policy refuses moving a request into overlap", func(t *testing.T) {
		svc := newTestService(newMemRepo(approved), Options{BlockConflictsOnCreate: true})
		b := mustCreate(t, svc, owner, input("2025-06-01", "10:00", "11:00"))

		start := "09:30"
		_, err := svc.Update(ctx, b.ID, owner, Patch{StartTime: &start})
		assert.ErrorIs(t, err, ErrTimeConflict)

		stored, err := svc.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "10:00", stored.StartTime)
		conflicts, err := svc.Conflicts(ctx, b.ID)
		require.NoError(t, err)
		assert.Empty(t, conflicts)

		title := "Renamed"
		_, err = svc.Update(ctx, b.ID, owner, Patch{Title: &title})
		assert.NoError(t, err, "edits that keep the slot are not re-checked")
	})

	t.Run("default policy lets a request move into overlap", func(t *testing.T) {
		svc := newTestService(newMemRepo(approved), Options{})
		b := mustCreate(t, svc, owner, input("2025-06-01", "10:00", "11:00"))

		start := "09:30"
		moved, err := svc.Update(ctx, b.ID, owner, Patch{StartTime: &start})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, moved.Status)
	})
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), Options{})
	b := mustCreate(t, svc, owner, input("2025-06-01", "09:00", "10:00"))

	_, err := svc.Transition(ctx, b.ID, owner, ActionApprove, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	notes := "enjoy"
	approved, err := svc.Transition(ctx, b.ID, admin, ActionApprove, &notes)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "enjoy", approved.AdminNotes)
	assert.True(t, approved.UpdatedAt.After(b.UpdatedAt))
	assert.Equal(t, b.CreatedAt, approved.CreatedAt)

	_, err = svc.Transition(ctx, b.ID, admin, ActionApprove, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Transition(ctx, "missing", admin, ActionApprove, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	rejected := mustCreate(t, svc, owner, input("2025-06-02", "09:00", "10:00"))
	_, err = svc.Transition(ctx, rejected.ID, admin, ActionReject, nil)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, rejected.ID, admin, ActionApprove, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUnapproveUpdatesCounts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), Options{})
	b := mustCreate(t, svc, owner, input("2025-06-01", "09:00", "10:00"))
	mustCreate(t, svc, owner, input("2025-06-01", "11:00", "12:00"))

	_, err := svc.Transition(ctx, b.ID, admin, ActionApprove, nil)
	require.NoError(t, err)
	before, err := svc.UserStats(ctx, "owner")
	require.NoError(t, err)

	reverted, err := svc.Transition(ctx, b.ID, admin, ActionUnapprove, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, reverted.Status)

	after, err := svc.UserStats(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, before.Approved-1, after.Approved)
	assert.Equal(t, before.Pending+1, after.Pending)
	assert.Equal(t, before.Total, after.Total)
}

func TestApproveBlockedByApprovedOverlap(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), Options{})
	a := mustCreate(t, svc, owner, input("2025-06-01", "09:00", "10:00"))
	b := mustCreate(t, svc, stranger, input("2025-06-01", "09:30", "10:30"))
	c := mustCreate(t, svc, stranger, input("2025-06-01", "10:00", "11:00"))

	_, err := svc.Transition(ctx, a.ID, admin, ActionApprove, nil)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, b.ID, admin, ActionApprove, nil)
	assert.ErrorIs(t, err, ErrTimeConflict)
	stored, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)

	_, err = svc.Transition(ctx, c.ID, admin, ActionApprove, nil)
	assert.NoError(t, err, "back-to-back bookings do not conflict")

	conflicts, err := svc.Conflicts(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, conflicts, 2)
}

func TestConcurrentApproveHasOneWinner(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), Options{})
	b := mustCreate(t, svc, owner, input("2025-06-01", "09:00", "10:00"))

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Transition(ctx, b.ID, admin, ActionApprove, nil)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
	assert.Equal(t, 1, wins)

	all, err := svc.ListAll(ctx, StatusApproved)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConcurrentApproveOfOverlapsHasOneWinner(t *testing.T) {
	const callers = 6

	cases := []struct {
		name      string
		locker    Locker
		dateLocks bool
		approved  int
	}{
		{name: "service date locks", locker: NewLocalLocker(), approved: 1},
		{name: "database date locks", locker: noopLocker{}, dateLocks: true, approved: 1},
		{name: "no date locks", locker: noopLocker{}, approved: callers},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := newMemRepo()
			if tc.dateLocks {
				repo.dateLocks = NewLocalLocker()
			}
			svc := newTestServiceWithLocker(repo, tc.locker, Options{})

			ids := make([]string, callers)
			for i := range ids {
				ids[i] = mustCreate(t, svc, owner, input("2025-06-01", fmt.Sprintf("09:%02d", i*5), "11:00")).ID
			}

			// Every approval that reaches the conflict check waits for the
			// others, so only the locks keep them apart.
			gate := newRendezvous(callers, 200*time.Millisecond)
			repo.afterPoolRead = gate.await

			var wg sync.WaitGroup
			for _, id := range ids {
				wg.Add(1)
				go func(id string) {
					defer wg.Done()
					_, err := svc.Transition(ctx, id, admin, ActionApprove, nil)
					if err != nil {
						assert.ErrorIs(t, err, ErrTimeConflict)
					}
				}(id)
			}
			wg.Wait()

			approved, err := svc.ListAll(ctx, StatusApproved)
			require.NoError(t, err)
			assert.Len(t, approved, tc.approved)
		})
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), Options{})
	b := mustCreate(t, svc, owner, input("2025-06-01", "09:00", "10:00"))

	title := "Renamed"
	updated, err := svc.Update(ctx, b.ID, owner, Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, b.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(b.UpdatedAt))

	_, err = svc.Update(ctx, b.ID, stranger, Patch{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	notes := "mine"
	_, err = svc.Update(ctx, b.ID, owner, Patch{AdminNotes: &notes})
	assert.ErrorIs(t, err, ErrForbidden)

	end := "08:00"
	_, err = svc.Update(ctx, b.ID, owner, Patch{EndTime: &end})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Transition(ctx, b.ID, admin, ActionApprove, nil)
	require.NoError(t, err)
	_, err = svc.Update(ctx, b.ID, owner, Patch{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden, "owner cannot edit once approved")

	edited, err := svc.Update(ctx, b.ID, admin, Patch{AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, edited.Status)
	assert.Equal(t, "mine", edited.AdminNotes)
}

func TestAdminMoveOfApprovedBookingIsChecked(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), Options{})
	a := mustCreate(t, svc, owner, input("2025-06-01", "09:00", "10:00"))
	b := mustCreate(t, svc, owner, input("2025-06-02", "09:00", "10:00"))
	for _, id := range []string{a.ID, b.ID} {
		_, err := svc.Transition(ctx, id, admin, ActionApprove, nil)
		require.NoError(t, err)
	}

	date := "2025-06-01"
	_, err := svc.Update(ctx, b.ID, admin, Patch{Date: &date})
	assert.ErrorIs(t, err, ErrTimeConflict)

	start, end := "10:00", "11:00"
	moved, err := svc.Update(ctx, b.ID, admin, Patch{Date: &date, StartTime: &start, EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", moved.Date)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), Options{})
	b := mustCreate(t, svc, owner, input("2025-06-01", "09:00", "10:00"))
	approved := mustCreate(t, svc, owner, input("2025-06-02", "09:00", "10:00"))
	_, err := svc.Transition(ctx, approved.ID, admin, ActionApprove, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, b.ID, stranger), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, b.ID, admin), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, approved.ID, owner), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, "missing", owner), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, b.ID, owner))

	all, err := svc.ListAll(ctx, "")
	require.NoError(t, err)
	mine, err := svc.ListForUser(ctx, "owner")
	require.NoError(t, err)
	for _, list := range [][]*Booking{all, mine} {
		require.Len(t, list, 1)
		assert.Equal(t, approved.ID, list[0].ID)
	}

	_, err = svc.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), Options{})
	mustCreate(t, svc, owner, input("2025-11-20", "09:00", "10:00"))
	mustCreate(t, svc, stranger, input("2025-11-21", "09:00", "10:00"))
	mustCreate(t, svc, owner, input("2025-12-01", "09:00", "10:00"))

	nov, err := svc.ListForMonth(ctx, YearMonth{Year: 2025, Month: time.November})
	require.NoError(t, err)
	assert.Len(t, nov, 2)

	day, err := svc.ListForDay(ctx, "2025-11-20T00:00:00.000Z")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "2025-11-20", day[0].Date)

	_, err = svc.ListForDay(ctx, "soon")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ListAll(ctx, Status("archived"))
	assert.ErrorIs(t, err, ErrValidation)

	mine, err := svc.ListForUser(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), Options{})
	a := mustCreate(t, svc, owner, input("2025-06-01", "09:00", "10:00"))
	p := mustCreate(t, svc, stranger, input("2025-06-01", "09:30", "10:30"))
	r := mustCreate(t, svc, stranger, input("2025-06-03", "09:00", "10:00"))
	mustCreate(t, svc, stranger, input("2025-06-02", "09:00", "10:00"))

	_, err := svc.Transition(ctx, a.ID, admin, ActionApprove, nil)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, r.ID, admin, ActionReject, nil)
	require.NoError(t, err)

	d, err := svc.Dashboard(ctx, MonthOf(testNow))
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 4, Pending: 2, Approved: 1, Rejected: 1}, d.Counts)
	assert.Equal(t, 4, d.Monthly)
	assert.Zero(t, d.Scheduled, "the approved booking is held in June")
	assert.Len(t, d.Pending, 2)
	assert.Equal(t, "2025-06-01", d.Pending[0].Date)
	assert.Len(t, d.Approved, 1)
	assert.Len(t, d.Rejected, 1)
	require.Contains(t, d.Conflicts, p.ID)
	assert.Equal(t, a.ID, d.Conflicts[p.ID][0].ID)
	assert.Len(t, d.Conflicts, 1)

	june, err := svc.Dashboard(ctx, YearMonth{Year: 2025, Month: time.June})
	require.NoError(t, err)
	assert.Equal(t, 1, june.Scheduled)
	assert.Zero(t, june.Monthly)
}

func TestConflictsIsNonFatal(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo, Options{})
	b := mustCreate(t, svc, owner, input("2025-06-01", "09:00", "10:00"))

	repo.failList = errors.New("connection reset")
	conflicts, err := svc.Conflicts(ctx, b.ID)
	require.NoError(t, err)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts)

	_, err = svc.Conflicts(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ListAll(ctx, "")
	assert.ErrorIs(t, err, ErrStorage)
}
