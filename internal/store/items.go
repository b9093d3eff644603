package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Item is one persisted expense line item.
type Item struct {
	ID          uuid.UUID  `json:"id"`
	DocumentID  uuid.UUID  `json:"documentId"`
	CategoryKey string     `json:"categoryKey"`
	CategoryNo  int        `json:"categoryNo"`
	EvidenceNo  int        `json:"evidenceNo"`
	ItemName    string     `json:"itemName"`
	Quantity    float64    `json:"quantity"`
	UnitPrice   *float64   `json:"unitPrice,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
	UsedAt      *time.Time `json:"usedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ItemRecord is the write shape for bulk imports: everything but the
// surrogate id and timestamps.
type ItemRecord struct {
	CategoryKey string
	CategoryNo  int
	EvidenceNo  int
	ItemName    string
	Quantity    float64
	UnitPrice   *float64
	Amount      *float64
	UsedAt      *time.Time
}

// ItemStore holds a pool rather than a DBTX because the bulk write
// paths open their own transactions.
type ItemStore struct {
	pool *pgxpool.Pool
}

func NewItemStore(pool *pgxpool.Pool) *ItemStore {
	return &ItemStore{pool: pool}
}

const upsertItemSQL = `
	INSERT INTO expense_items
		(document_id, category_key, category_no, evidence_no, item_name, quantity, unit_price, amount, used_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (document_id, category_key, evidence_no) DO UPDATE SET
		category_no = EXCLUDED.category_no,
		item_name   = EXCLUDED.item_name,
		quantity    = EXCLUDED.quantity,
		unit_price  = EXCLUDED.unit_price,
		amount      = EXCLUDED.amount,
		used_at     = EXCLUDED.used_at,
		updated_at  = now()
`

// UpsertBatch writes the records keyed on (document, category, evidence)
// inside one transaction: re-importing the same workbook is a no-op for
// unchanged rows and an overwrite for changed ones.
func (s *ItemStore) UpsertBatch(ctx context.Context, documentID uuid.UUID, records []ItemRecord) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		for _, r := range records {
			if _, err := tx.Exec(ctx, upsertItemSQL,
				documentID, r.CategoryKey, r.CategoryNo, r.EvidenceNo,
				r.ItemName, r.Quantity, r.UnitPrice, r.Amount, r.UsedAt); err != nil {
				return fmt.Errorf("upsert item %s/%d: %w", r.CategoryKey, r.EvidenceNo, err)
			}
		}
		return nil
	})
}

// ReplaceAll clears the document's items and inserts the fresh batch.
// Delete and insert share one transaction so concurrent readers never
// observe the transiently empty item set.
func (s *ItemStore) ReplaceAll(ctx context.Context, documentID uuid.UUID, records []ItemRecord) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM expense_items WHERE document_id = $1`, documentID); err != nil {
			return fmt.Errorf("clear items of %s: %w", documentID, err)
		}
		for _, r := range records {
			if _, err := tx.Exec(ctx, `
				INSERT INTO expense_items
					(document_id, category_key, category_no, evidence_no, item_name, quantity, unit_price, amount, used_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, documentID, r.CategoryKey, r.CategoryNo, r.EvidenceNo,
				r.ItemName, r.Quantity, r.UnitPrice, r.Amount, r.UsedAt); err != nil {
				return fmt.Errorf("insert item %s/%d: %w", r.CategoryKey, r.EvidenceNo, err)
			}
		}
		return nil
	})
}

func (s *ItemStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const selectItemSQL = `
	SELECT id, document_id, category_key, category_no, evidence_no,
	       item_name, quantity, unit_price, amount, used_at, created_at, updated_at
	FROM expense_items
`

func scanItem(row pgx.Row) (*Item, error) {
	item := &Item{}
	err := row.Scan(&item.ID, &item.DocumentID, &item.CategoryKey, &item.CategoryNo,
		&item.EvidenceNo, &item.ItemName, &item.Quantity, &item.UnitPrice,
		&item.Amount, &item.UsedAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemStore) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, err := scanItem(s.pool.QueryRow(ctx, selectItemSQL+` WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return item, nil
}

// List returns the document's items in export order.
func (s *ItemStore) List(ctx context.Context, documentID uuid.UUID) ([]Item, error) {
	rows, err := s.pool.Query(ctx, selectItemSQL+`
		WHERE document_id = $1
		ORDER BY category_no, evidence_no
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list items of %s: %w", documentID, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Create adds one manually entered item, assigning the next evidence
// number in its category block.
func (s *ItemStore) Create(ctx context.Context, documentID uuid.UUID, r ItemRecord) (*Item, error) {
	var created *Item
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		evidenceNo := r.EvidenceNo
		if evidenceNo == 0 {
			err := tx.QueryRow(ctx, `
				SELECT COALESCE(MAX(evidence_no), 0) + 1
				FROM expense_items
				WHERE document_id = $1 AND category_key = $2
			`, documentID, r.CategoryKey).Scan(&evidenceNo)
			if err != nil {
				return fmt.Errorf("next evidence number: %w", err)
			}
		}

		item, err := scanItem(tx.QueryRow(ctx, `
			INSERT INTO expense_items
				(document_id, category_key, category_no, evidence_no, item_name, quantity, unit_price, amount, used_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, document_id, category_key, category_no, evidence_no,
			          item_name, quantity, unit_price, amount, used_at, created_at, updated_at
		`, documentID, r.CategoryKey, r.CategoryNo, evidenceNo,
			r.ItemName, r.Quantity, r.UnitPrice, r.Amount, r.UsedAt))
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		created = item
		return nil
	})
	return created, err
}

// Update rewrites the editable fields of one item.
func (s *ItemStore) Update(ctx context.Context, id uuid.UUID, r ItemRecord) (*Item, error) {
	item, err := scanItem(s.pool.QueryRow(ctx, `
		UPDATE expense_items SET
			item_name  = $2,
			quantity   = $3,
			unit_price = $4,
			amount     = $5,
			used_at    = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING id, document_id, category_key, category_no, evidence_no,
		          item_name, quantity, unit_price, amount, used_at, created_at, updated_at
	`, id, r.ItemName, r.Quantity, r.UnitPrice, r.Amount, r.UsedAt))
	if err != nil {
		return nil, fmt.Errorf("update item %s: %w", id, err)
	}
	return item, nil
}

// DeleteByDocument clears every item of a document (explicit clear
// before a re-import, or administrative cleanup).
func (s *ItemStore) DeleteByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expense_items WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete items of %s: %w", documentID, err)
	}
	return tag.RowsAffected(), nil
}
