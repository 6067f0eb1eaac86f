package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence. Notes live inside the
// ticket record and are only ever appended through AppendNote.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Ticket, error)
	// UpdateStatus sets the status and returns the status the row held
	// just before the write. When from is non-empty the update only
	// applies if the current status is one of from, else ErrStatusGuard.
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, from []domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error)
	// AppendNote atomically pushes note onto the ticket's note list. The
	// store assigns note.Timestamp.
	AppendNote(ctx context.Context, id string, note domain.Note) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

// ticketColumns reads from a relation aliased t; ticketJoin attaches the owner.
const (
	ticketColumns = `
        SELECT t.id::text, t.title, t.status, t.customer_id::text,
               COALESCE(u.name, ''), COALESCE(u.email, ''),
               t.notes, t.created_at, t.updated_at`
	ticketJoin = `
        FROM %s t LEFT JOIN users u ON u.id = t.customer_id`
)

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, status, customer_id)
        VALUES ($1::uuid, $2, $3, $4::uuid)
        RETURNING created_at, updated_at`

	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Notes == nil {
		ticket.Notes = []domain.Note{}
	}
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Status,
		ticket.Customer.ID,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := selectFrom("tickets") + ` WHERE t.id=$1::uuid`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	return r.list(ctx, selectFrom("tickets")+` ORDER BY t.created_at ASC`)
}

func (r *ticketRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Ticket, error) {
	if !validID(customerID) {
		return []domain.Ticket{}, nil
	}
	return r.list(ctx, selectFrom("tickets")+` WHERE t.customer_id=$1::uuid ORDER BY t.created_at ASC`, customerID)
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// UpdateStatus locks the row in prev so the reported previous status is the
// one this statement overwrote.
func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, from []domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error) {
	if !validID(id) {
		return nil, "", ErrNotFound
	}
	guard := make([]string, 0, len(from))
	for _, s := range from {
		guard = append(guard, string(s))
	}
	query := `
        WITH prev AS (
            SELECT id, status FROM tickets WHERE id=$1::uuid FOR UPDATE
        ), updated AS (
            UPDATE tickets cur SET status=$2, updated_at=NOW()
            FROM prev
            WHERE cur.id = prev.id AND (cardinality($3::text[]) = 0 OR prev.status = ANY($3::text[]))
            RETURNING cur.*, prev.status AS previous_status
        )` + selectFrom("updated", "t.previous_status")

	var previous domain.TicketStatus
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id, status, guard), &previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", r.missOrGuard(ctx, id, len(guard) > 0)
	}
	if err != nil {
		return nil, "", err
	}
	return ticket, previous, nil
}

func (r *ticketRepository) missOrGuard(ctx context.Context, id string, guarded bool) error {
	if !guarded {
		return ErrNotFound
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1::uuid)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStatusGuard
	}
	return ErrNotFound
}

// AppendNote uses a single jsonb concatenation so concurrent appends to the
// same ticket serialize on the row lock instead of overwriting each other.
// clock_timestamp is evaluated after the lock is taken, which keeps note
// timestamps non-decreasing within a ticket.
func (r *ticketRepository) AppendNote(ctx context.Context, id string, note domain.Note) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	query := `
        WITH updated AS (
            UPDATE tickets SET
                notes = notes || jsonb_build_array(jsonb_build_object(
                    'id', $2::text,
                    'text', $3::text,
                    'addedBy', jsonb_build_object('userId', $4::text, 'name', $5::text),
                    'timestamp', clock_timestamp()
                )),
                updated_at = NOW()
            WHERE id=$1::uuid
            RETURNING *
        )` + selectFrom("updated")

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id, note.ID, note.Text, note.AddedBy.UserID, note.AddedBy.Name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1::uuid`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count)
	return count, err
}

// selectFrom builds the ticket projection over relation. Extra columns are
// appended after the standard ones and scanned via scanTicket's extra dests.
func selectFrom(relation string, extra ...string) string {
	columns := ticketColumns
	for _, column := range extra {
		columns += ", " + column
	}
	return columns + fmt.Sprintf(ticketJoin, relation)
}

func scanTicket(row pgx.Row, extra ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	dest := []any{
		&ticket.ID,
		&ticket.Title,
		&ticket.Status,
		&ticket.Customer.ID,
		&ticket.Customer.Name,
		&ticket.Customer.Email,
		&ticket.Notes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if ticket.Notes == nil {
		ticket.Notes = []domain.Note{}
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
