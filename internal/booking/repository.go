package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the booking store. Implementations return ErrNotFound for
// missing ids and plain wrapped errors for everything else.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, error)
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
	Delete(ctx context.Context, id string) error

	// GetByIDForUpdate reads a row and locks it until the surrounding
	// transaction ends. Outside WithTx it behaves like GetByID.
	GetByIDForUpdate(ctx context.Context, id string) (*Booking, error)

	// LockDate holds a lock on date until the surrounding transaction ends,
	// across every server instance. Outside WithTx it is a no-op.
	LockDate(ctx context.Context, date string) error

	// WithTx runs fn against a transaction-scoped Repository, committing if
	// fn returns nil. Nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"id",
	"title",
	"description",
	"to_char(date, 'YYYY-MM-DD')",
	"to_char(start_time, 'HH24:MI')",
	"to_char(end_time, 'HH24:MI')",
	"organizer_user_id",
	"organizer_name",
	"organizer_email",
	"organizer_phone",
	"department",
	"expected_attendees",
	"equipment_needed",
	"status",
	"admin_notes",
	"created_at",
	"updated_at",
}

type pgxRepository struct {
	pool *pgxpool.Pool // nil inside a transaction
	q    querier
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool, q: pool}
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Description,
		&b.Date,
		&b.StartTime,
		&b.EndTime,
		&b.OrganizerUserID,
		&b.OrganizerName,
		&b.OrganizerEmail,
		&b.OrganizerPhone,
		&b.Department,
		&b.ExpectedAttendees,
		&b.EquipmentNeeded,
		&b.Status,
		&b.AdminNotes,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if b.EquipmentNeeded == nil {
		b.EquipmentNeeded = []string{}
	}
	return &b, nil
}

func (r *pgxRepository) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&pgxRepository{q: tx})
	})
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	return r.getOne(ctx, getQuery(id, false))
}

func (r *pgxRepository) GetByIDForUpdate(ctx context.Context, id string) (*Booking, error) {
	return r.getOne(ctx, getQuery(id, r.pool == nil))
}

func (r *pgxRepository) LockDate(ctx context.Context, date string) error {
	if r.pool != nil {
		return nil
	}

	query, args, err := dateLockQuery(date).ToSql()
	if err != nil {
		return fmt.Errorf("build date lock query failed: %w", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("lock date %s failed: %w", date, err)
	}
	return nil
}

func dateLockQuery(date string) squirrel.SelectBuilder {
	return psql.Select().Column(squirrel.Expr("pg_advisory_xact_lock(hashtext(?))", dateKey(date)))
}

func (r *pgxRepository) getOne(ctx context.Context, builder squirrel.SelectBuilder) (*Booking, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func getQuery(id string, forUpdate bool) squirrel.SelectBuilder {
	query := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"id": id})
	if forUpdate {
		query = query.Suffix("FOR UPDATE")
	}
	return query
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, error) {
	query, args, err := listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	bookings := make([]*Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
	}

	return bookings, nil
}

// listQuery orders by event date then start time; created_at keeps
// insertion order for ties.
func listQuery(filter Filter) squirrel.SelectBuilder {
	query := psql.Select(bookingColumns...).From("public.bookings")

	if filter.OrganizerUserID != "" {
		query = query.Where(squirrel.Eq{"organizer_user_id": filter.OrganizerUserID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Date != "" {
		query = query.Where(squirrel.Expr("date = ?::date", filter.Date))
	}
	if filter.Month != nil {
		query = query.Where(squirrel.Expr("date >= ?::date", filter.Month.FirstDay())).
			Where(squirrel.Expr("date < ?::date", filter.Month.Next().FirstDay()))
	}

	return query.OrderBy("date ASC", "start_time ASC", "created_at ASC", "id ASC")
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"title", "description", "date", "start_time", "end_time",
			"organizer_user_id", "organizer_name", "organizer_email", "organizer_phone", "department",
			"expected_attendees", "equipment_needed", "status", "admin_notes", "created_at", "updated_at",
		).
		Values(
			b.Title, b.Description,
			squirrel.Expr("?::date", b.Date), squirrel.Expr("?::time", b.StartTime), squirrel.Expr("?::time", b.EndTime),
			b.OrganizerUserID, b.OrganizerName, b.OrganizerEmail, b.OrganizerPhone, b.Department,
			b.ExpectedAttendees, b.EquipmentNeeded, b.Status, b.AdminNotes, b.CreatedAt, b.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.q.QueryRow(ctx, query, args...).Scan(&b.ID); err != nil {
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	query, args, err := updateQuery(b).ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// updateQuery writes every mutable column. Organizer fields and created_at
// are never touched.
func updateQuery(b *Booking) squirrel.UpdateBuilder {
	return psql.Update("public.bookings").
		Set("title", b.Title).
		Set("description", b.Description).
		Set("date", squirrel.Expr("?::date", b.Date)).
		Set("start_time", squirrel.Expr("?::time", b.StartTime)).
		Set("end_time", squirrel.Expr("?::time", b.EndTime)).
		Set("expected_attendees", b.ExpectedAttendees).
		Set("equipment_needed", b.EquipmentNeeded).
		Set("status", b.Status).
		Set("admin_notes", b.AdminNotes).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID})
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
