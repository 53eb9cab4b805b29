package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ironmanager/membership-engine/internal/domain"
	"github.com/ironmanager/membership-engine/pkg/utils"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type ledgerRepository struct {
	db *sqlx.DB
}

// Open creates the SQLite ledger at dbPath if needed, runs pending
// migrations, and returns a connected handle.
func Open(dbPath string) (*sqlx.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection
	// also serializes mutations, which keeps the pointer invariant safe
	// under concurrent callers.
	db.SetMaxOpenConns(1)

	return db, nil
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

type clientRow struct {
	ID            int64  `db:"id"`
	Name          string `db:"name"`
	LastPaymentID *int64 `db:"last_payment_id"`
}

func (r clientRow) toDomain() *domain.Client {
	return &domain.Client{
		ID:            r.ID,
		Name:          r.Name,
		LastPaymentID: r.LastPaymentID,
	}
}

type paymentRow struct {
	ID          int64   `db:"id"`
	ClientID    int64   `db:"client_id"`
	Date        string  `db:"date"`
	AmountCents int64   `db:"amount_cents"`
	Month       int     `db:"month"`
	Year        int     `db:"year"`
	Description *string `db:"description"`
}

func (r paymentRow) toDomain() (*domain.Payment, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return nil, fmt.Errorf("parse date of payment %d: %w", r.ID, err)
	}

	p := &domain.Payment{
		ID:       r.ID,
		ClientID: r.ClientID,
		Date:     date,
		Amount:   utils.CentsToAmount(r.AmountCents),
		Month:    r.Month,
		Year:     r.Year,
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	return p, nil
}

func (r *ledgerRepository) GetClientByID(ctx context.Context, id int64) (*domain.Client, error) {
	query := `
		SELECT id, name, last_payment_id
		FROM clients
		WHERE id = ?
	`

	var row clientRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}

	return row.toDomain(), nil
}

func (r *ledgerRepository) GetClientByName(ctx context.Context, name string) (*domain.Client, error) {
	query := `
		SELECT id, name, last_payment_id
		FROM clients
		WHERE name = ?
	`

	var row clientRow
	if err := r.db.GetContext(ctx, &row, query, name); err != nil {
		return nil, err
	}

	return row.toDomain(), nil
}

func (r *ledgerRepository) ListClientNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.SelectContext(ctx, &names, `SELECT name FROM clients ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}

	return names, nil
}

func (r *ledgerRepository) GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `
		SELECT id, client_id, date, amount_cents, month, year, description
		FROM payments
		WHERE id = ?
	`

	var row paymentRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}

	return row.toDomain()
}

func (r *ledgerRepository) HasPaymentForPeriod(ctx context.Context, clientID int64, month, year int, excludeID int64) (bool, error) {
	query := `
		SELECT COUNT(1)
		FROM payments
		WHERE client_id = ? AND month = ? AND year = ? AND id != ?
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, clientID, month, year, excludeID); err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *ledgerRepository) CreatePayment(ctx context.Context, clientName string, payment *domain.Payment) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var cli clientRow
	err = tx.GetContext(ctx, &cli, `SELECT id, name, last_payment_id FROM clients WHERE name = ?`, clientName)
	switch {
	case err == nil:
		payment.ClientID = cli.ID
	case errors.Is(err, sql.ErrNoRows):
		res, insErr := tx.ExecContext(ctx,
			`INSERT INTO clients (name, last_payment_id) VALUES (?, NULL)`, clientName)
		if insErr != nil {
			return 0, insErr
		}
		payment.ClientID, insErr = res.LastInsertId()
		if insErr != nil {
			return 0, insErr
		}
	default:
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO payments (client_id, date, amount_cents, month, year, description)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		payment.ClientID,
		payment.Date.Format(dateLayout),
		utils.AmountToCents(payment.Amount),
		payment.Month,
		payment.Year,
		payment.Description,
	)
	if err != nil {
		return 0, err
	}

	payment.ID, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := r.repointLatest(ctx, tx, payment.ClientID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return payment.ID, nil
}

func (r *ledgerRepository) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET amount_cents = ?, month = ?, year = ?, description = ?
		WHERE id = ?
	`,
		utils.AmountToCents(payment.Amount),
		payment.Month,
		payment.Year,
		payment.Description,
		payment.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := r.repointLatest(ctx, tx, payment.ClientID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *ledgerRepository) DeletePayment(ctx context.Context, payment *domain.Payment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, payment.ID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := r.repointLatest(ctx, tx, payment.ClientID); err != nil {
		return err
	}

	return tx.Commit()
}

// repointLatest re-derives the client's last-payment pointer from all of
// its remaining payments inside the surrounding transaction. A client left
// with no payments is pruned.
func (r *ledgerRepository) repointLatest(ctx context.Context, tx *sqlx.Tx, clientID int64) error {
	var rows []paymentRow
	err := tx.SelectContext(ctx, &rows, `
		SELECT id, client_id, date, amount_cents, month, year, description
		FROM payments
		WHERE client_id = ?
	`, clientID)
	if err != nil {
		return err
	}

	payments := make([]*domain.Payment, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return err
		}
		payments = append(payments, p)
	}

	latest := domain.LatestOf(payments)
	if latest == nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, clientID)
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE clients SET last_payment_id = ? WHERE id = ?`, latest.ID, clientID)
	return err
}

type listRow struct {
	PaymentID   int64   `db:"id"`
	ClientName  string  `db:"name"`
	AmountCents int64   `db:"amount_cents"`
	Date        string  `db:"date"`
	Description *string `db:"description"`
}

func (r *ledgerRepository) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]*domain.PaymentRecord, error) {
	query := `
		SELECT p.id, c.name, p.amount_cents, p.date, p.description
		FROM payments p
		JOIN clients c ON p.client_id = c.id
		WHERE 1 = 1
	`
	var args []interface{}

	if filter.NamePattern != "" {
		query += " AND c.name LIKE ?"
		args = append(args, "%"+filter.NamePattern+"%")
	}
	if filter.Month != 0 {
		query += " AND p.month = ?"
		args = append(args, filter.Month)
	}
	if filter.Year != 0 {
		query += " AND p.year = ?"
		args = append(args, filter.Year)
	}

	query += " ORDER BY c.name ASC"

	var rows []listRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	records := make([]*domain.PaymentRecord, 0, len(rows))
	for _, row := range rows {
		record := &domain.PaymentRecord{
			PaymentID:  row.PaymentID,
			ClientName: row.ClientName,
			Amount:     utils.CentsToAmount(row.AmountCents),
			Date:       row.Date,
		}
		if row.Description != nil {
			record.Description = *row.Description
		}
		records = append(records, record)
	}

	return records, nil
}

type totalRow struct {
	Month      int   `db:"month"`
	TotalCents int64 `db:"total_cents"`
}

func (r *ledgerRepository) MonthlyTotals(ctx context.Context, year int) ([]*domain.MonthlyTotal, error) {
	query := `
		SELECT month, SUM(amount_cents) AS total_cents
		FROM payments
		WHERE year = ?
		GROUP BY month
		ORDER BY month ASC
	`

	var rows []totalRow
	if err := r.db.SelectContext(ctx, &rows, query, year); err != nil {
		return nil, err
	}

	totals := make([]*domain.MonthlyTotal, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, &domain.MonthlyTotal{
			Month: row.Month,
			Total: utils.CentsToAmount(row.TotalCents),
		})
	}

	return totals, nil
}

func (r *ledgerRepository) ListYears(ctx context.Context) ([]int, error) {
	var years []int
	err := r.db.SelectContext(ctx, &years, `SELECT DISTINCT year FROM payments ORDER BY year DESC`)
	if err != nil {
		return nil, err
	}

	return years, nil
}

type statusRow struct {
	ClientID  int64  `db:"id"`
	Name      string `db:"name"`
	LastMonth *int   `db:"last_month"`
	LastYear  *int   `db:"last_year"`
}

func (r *ledgerRepository) ClientStatuses(ctx context.Context, namePattern string) ([]*domain.ClientStatus, error) {
	query := `
		SELECT c.id, c.name, p.month AS last_month, p.year AS last_year
		FROM clients c
		LEFT JOIN payments p ON c.last_payment_id = p.id
		WHERE 1 = 1
	`
	var args []interface{}

	if namePattern != "" {
		query += " AND c.name LIKE ?"
		args = append(args, "%"+namePattern+"%")
	}

	query += " ORDER BY c.name ASC"

	var rows []statusRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	statuses := make([]*domain.ClientStatus, 0, len(rows))
	for _, row := range rows {
		statuses = append(statuses, &domain.ClientStatus{
			ClientID:  row.ClientID,
			Name:      row.Name,
			LastMonth: row.LastMonth,
			LastYear:  row.LastYear,
		})
	}

	return statuses, nil
}
