package repository

import (
	"database/sql"
	"fmt"
	"time"

	"sliptrack/internal/database"
	"sliptrack/internal/models"
)

// ReceiptRepository handles database operations for receipt batches
type ReceiptRepository struct {
	db database.DBTX
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db database.DBTX) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// NewReceiptID allocates a fresh receipt identifier from the creation
// timestamp
func NewReceiptID(now time.Time) string {
	return fmt.Sprintf("r_%d", now.UnixMilli())
}

// Create persists a new receipt owned by the given user
func (r *ReceiptRepository) Create(ownerID int64, id, name string, createdAt time.Time) (*models.Receipt, error) {
	query := "INSERT INTO receipts (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)"
	if _, err := r.db.Exec(query, id, ownerID, name, createdAt); err != nil {
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}
	return &models.Receipt{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: createdAt,
	}, nil
}

// Rename updates the display name. Idempotent: renaming to the current
// name is a no-op at the store level.
func (r *ReceiptRepository) Rename(ownerID int64, id, newName string) error {
	query := "UPDATE receipts SET name = ? WHERE owner_id = ? AND id = ?"
	if _, err := r.db.Exec(query, newName, ownerID, id); err != nil {
		return fmt.Errorf("failed to rename receipt: %w", err)
	}
	return nil
}

// Get retrieves one receipt
func (r *ReceiptRepository) Get(ownerID int64, id string) (*models.Receipt, error) {
	query := "SELECT id, owner_id, name, created_at FROM receipts WHERE owner_id = ? AND id = ?"
	receipt := &models.Receipt{}
	err := r.db.QueryRow(query, ownerID, id).Scan(
		&receipt.ID,
		&receipt.OwnerID,
		&receipt.Name,
		&receipt.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt, nil
}

// ListByOwner retrieves all receipts of one user in creation order
func (r *ReceiptRepository) ListByOwner(ownerID int64) ([]models.Receipt, error) {
	query := `
		SELECT id, owner_id, name, created_at
		FROM receipts
		WHERE owner_id = ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		var receipt models.Receipt
		if err := rows.Scan(
			&receipt.ID,
			&receipt.OwnerID,
			&receipt.Name,
			&receipt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

// Delete removes the receipt document itself. Cascading removal of the
// students happens first, at the service level.
func (r *ReceiptRepository) Delete(ownerID int64, id string) error {
	query := "DELETE FROM receipts WHERE owner_id = ? AND id = ?"
	if _, err := r.db.Exec(query, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return nil
}
