package bill

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("bill: not found")
)

// Repository is the server-side persistence behind the bills API.
type Repository interface {
	ListByEmail(ctx context.Context, email string) ([]Bill, error)
	Create(ctx context.Context, b Bill) (Bill, error)
	Update(ctx context.Context, id, email string, b Bill) (Bill, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const billColumns = `id::text, email, type, name, date, amount, vat, pct, commentary, file_url, file_name, status`

func (r *PGRepository) ListByEmail(ctx context.Context, email string) ([]Bill, error) {
	query := fmt.Sprintf(`SELECT %s FROM bills WHERE email=$1 ORDER BY date DESC, created_at DESC`, billColumns)

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("bill: list: %w", err)
	}
	defer rows.Close()

	bills := []Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bill: list rows: %w", err)
	}

	return bills, nil
}

func (r *PGRepository) Create(ctx context.Context, b Bill) (Bill, error) {
	query := fmt.Sprintf(`
        INSERT INTO bills (id, email, type, name, date, amount, vat, pct, commentary, file_url, file_name, status)
        VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING %s`, billColumns)

	row := r.pool.QueryRow(ctx, query,
		b.ID,
		b.Email,
		b.Type,
		b.Name,
		b.Date,
		string(b.Amount),
		string(b.VAT),
		string(b.Pct),
		b.Commentary,
		b.FileURL,
		b.FileName,
		string(b.Status),
	)

	created, err := scanBill(row)
	if err != nil {
		return Bill{}, fmt.Errorf("bill: create: %w", err)
	}
	return created, nil
}

func (r *PGRepository) Update(ctx context.Context, id, email string, b Bill) (Bill, error) {
	query := fmt.Sprintf(`
        UPDATE bills
        SET type=$3, name=$4, date=$5, amount=$6, vat=$7, pct=$8, commentary=$9,
            file_url=$10, file_name=$11, status=$12, updated_at=now()
        WHERE id=$1::uuid AND email=$2
        RETURNING %s`, billColumns)

	row := r.pool.QueryRow(ctx, query,
		id,
		email,
		b.Type,
		b.Name,
		b.Date,
		string(b.Amount),
		string(b.VAT),
		string(b.Pct),
		b.Commentary,
		b.FileURL,
		b.FileName,
		string(b.Status),
	)

	updated, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, ErrNotFound
		}
		return Bill{}, fmt.Errorf("bill: update: %w", err)
	}
	return updated, nil
}

func scanBill(row pgx.Row) (Bill, error) {
	var (
		b                Bill
		amount, vat, pct string
		status           string
	)
	if err := row.Scan(
		&b.ID,
		&b.Email,
		&b.Type,
		&b.Name,
		&b.Date,
		&amount,
		&vat,
		&pct,
		&b.Commentary,
		&b.FileURL,
		&b.FileName,
		&status,
	); err != nil {
		return Bill{}, err
	}
	b.Amount = Numeric(amount)
	b.VAT = Numeric(vat)
	b.Pct = Numeric(pct)
	b.Status = Status(status)
	return b, nil
}
