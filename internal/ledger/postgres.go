package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS ledger_journal (
    session_id     TEXT        NOT NULL,
    seq            BIGSERIAL   PRIMARY KEY,
    event          TEXT        NOT NULL,
    transaction_id TEXT        NOT NULL,
    kind           TEXT        NOT NULL,
    amount         BIGINT      NOT NULL CHECK (amount > 0),
    fee            BIGINT      NOT NULL DEFAULT 0 CHECK (fee >= 0),
    currency       TEXT        NOT NULL,
    status         TEXT        NOT NULL,
    occurred_at    DATE        NOT NULL,
    description    TEXT        NOT NULL DEFAULT '',
    counterparty   TEXT        NOT NULL DEFAULT '',
    channel        TEXT        NOT NULL DEFAULT '',
    recorded_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ledger_journal_session_idx ON ledger_journal (session_id, seq);`

// PostgresJournal mirrors the session's book changes into PostgreSQL.
type PostgresJournal struct {
	db        *pgxpool.Pool
	sessionID string
}

// NewPostgresJournal constructs a journal writing rows tagged with sessionID.
func NewPostgresJournal(db *pgxpool.Pool, sessionID string) *PostgresJournal {
	return &PostgresJournal{db: db, sessionID: sessionID}
}

// EnsureSchema creates the journal table when it does not exist.
func (j *PostgresJournal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.Exec(ctx, journalSchema); err != nil {
		return fmt.Errorf("create journal schema: %w", err)
	}
	return nil
}

// Record inserts one journal row.
func (j *PostgresJournal) Record(ctx context.Context, event string, tx Transaction) error {
	const query = `
        INSERT INTO ledger_journal (session_id, event, transaction_id, kind, amount, fee, currency,
            status, occurred_at, description, counterparty, channel)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := j.db.Exec(ctx, query, j.sessionID, event, tx.ID, string(tx.Kind), tx.Amount, tx.Fee,
		string(tx.Currency), string(tx.Status), tx.OccurredAt, tx.Description, tx.Counterparty, tx.Channel)
	return err
}

// Entries returns this session's journal rows in insertion order.
func (j *PostgresJournal) Entries(ctx context.Context) ([]JournalEntry, error) {
	const query = `
        SELECT seq, event, transaction_id, kind, amount, fee, currency, status, occurred_at,
            description, counterparty, channel, recorded_at
        FROM ledger_journal
        WHERE session_id = $1
        ORDER BY seq`
	rows, err := j.db.Query(ctx, query, j.sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanJournalEntry(row pgx.Row) (JournalEntry, error) {
	var (
		entry                  JournalEntry
		kind, currency, status string
		occurredAt, recordedAt time.Time
	)
	tx := &entry.Transaction
	if err := row.Scan(&entry.Seq, &entry.Event, &tx.ID, &kind, &tx.Amount, &tx.Fee, &currency, &status,
		&occurredAt, &tx.Description, &tx.Counterparty, &tx.Channel, &recordedAt); err != nil {
		return JournalEntry{}, err
	}
	tx.Kind = Kind(kind)
	tx.Currency = Currency(currency)
	tx.Status = Status(status)
	tx.OccurredAt = Day(occurredAt)
	entry.RecordedAt = recordedAt.UTC()
	return entry, nil
}
