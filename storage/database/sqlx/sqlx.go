// Package sqlxrepos implements the repositories on PostgreSQL with sqlx.
// Ledgers live in one table as JSONB documents keyed by (entity kind, entity id, year).
package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/roster"
)

// inTx runs fn in a transaction, rolled back when fn fails.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// validID filters out ids Postgres would refuse to compare with a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// checkAffected maps an update or delete that matched no row to notFound.
func checkAffected(res interface{ RowsAffected() (int64, error) }, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

type memberRow struct {
	ID         string          `db:"id"`
	Name       string          `db:"name"`
	Status     string          `db:"status"`
	LeftDate   null.Time       `db:"left_date"`
	JoinedAt   time.Time       `db:"joined_at"`
	BaseAmount decimal.Decimal `db:"base_amount"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func newMemberRow(m roster.Member) memberRow {
	return memberRow{
		ID:         m.ID,
		Name:       m.Name,
		Status:     string(m.Status),
		LeftDate:   null.TimeFromPtr(m.LeftDate),
		JoinedAt:   m.JoinedAt.UTC(),
		BaseAmount: m.BaseAmount,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func (r memberRow) member(el ledger.EntityLedger) roster.Member {
	if el == nil {
		el = make(ledger.EntityLedger)
	}
	m := roster.Member{
		ID:         r.ID,
		Name:       r.Name,
		Status:     roster.Status(r.Status),
		JoinedAt:   r.JoinedAt.UTC(),
		BaseAmount: r.BaseAmount,
		Ledger:     el,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
	if r.LeftDate.Valid {
		t := r.LeftDate.Time.UTC()
		m.LeftDate = &t
	}
	return m
}

type ledgerRow struct {
	EntityID string `db:"entity_id"`
	Year     int    `db:"year"`
	Document []byte `db:"document"`
}

// loadLedgers reads the ledgers of kind, for the given entities only when ids are passed.
func loadLedgers(ctx context.Context, q sqlx.QueryerContext, kind ledger.Kind, ids ...string) (map[string]ledger.EntityLedger, error) {
	query := `SELECT entity_id, year, document FROM ledgers WHERE entity_kind = $1`
	args := []interface{}{kind.String()}
	if len(ids) > 0 {
		query += ` AND entity_id::text = ANY($2)`
		args = append(args, pq.Array(ids))
	}

	var rows []ledgerRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, errors.Wrapf(err, "querying %s ledgers", kind)
	}

	out := make(map[string]ledger.EntityLedger)
	for _, r := range rows {
		l, err := ledger.DecodeDocument(kind, r.Document)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s ledger %d of %s", kind, r.Year, r.EntityID)
		}
		if out[r.EntityID] == nil {
			out[r.EntityID] = make(ledger.EntityLedger)
		}
		out[r.EntityID][r.Year] = l
	}
	return out, nil
}

// saveLedger upserts one year. Last write wins.
func saveLedger(ctx context.Context, exec sqlx.ExecerContext, kind ledger.Kind, id string, year int, l ledger.YearLedger) error {
	l.Kind = kind
	doc, err := json.Marshal(l)
	if err != nil {
		return errors.Wrap(err, "encoding ledger")
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO ledgers (entity_kind, entity_id, year, document, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entity_kind, entity_id, year)
		DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		kind.String(), id, year, string(doc), time.Now().UTC())
	return errors.Wrapf(err, "saving %s ledger %d", kind, year)
}

func saveLedgers(ctx context.Context, exec sqlx.ExecerContext, kind ledger.Kind, id string, el ledger.EntityLedger, years []int) error {
	for _, year := range years {
		l, ok := el[year]
		if !ok {
			continue
		}
		if err := saveLedger(ctx, exec, kind, id, year, l); err != nil {
			return err
		}
	}
	return nil
}

func deleteLedgers(ctx context.Context, exec sqlx.ExecerContext, kind ledger.Kind, id string) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM ledgers WHERE entity_kind = $1 AND entity_id = $2`, kind.String(), id)
	return errors.Wrapf(err, "deleting %s ledgers", kind)
}
