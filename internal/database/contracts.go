package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stockcity/txf-bar-service/internal/models"
)

// CreateContract adds a futures contract to the ingestion list
func (db *DB) CreateContract(c *models.Contract) error {
	query := `
		INSERT INTO contracts (code, name, enabled, added_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			enabled = EXCLUDED.enabled,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	_, err := db.conn.Exec(query, c.Code, c.Name, c.Enabled, now, now)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	c.AddedAt = now
	c.UpdatedAt = now
	return nil
}

// GetContract retrieves a contract by code
func (db *DB) GetContract(code string) (*models.Contract, error) {
	query := `
		SELECT code, name, enabled, added_at, updated_at
		FROM contracts
		WHERE code = $1
	`
	var c models.Contract
	var name sql.NullString

	err := db.conn.QueryRow(query, code).Scan(&c.Code, &name, &c.Enabled, &c.AddedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contract not found: %s", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}

	if name.Valid {
		c.Name = name.String
	}
	return &c, nil
}

// GetAllContracts retrieves all contracts ordered by code
func (db *DB) GetAllContracts() ([]*models.Contract, error) {
	query := `
		SELECT code, name, enabled, added_at, updated_at
		FROM contracts
		ORDER BY code ASC
	`
	return db.scanContracts(db.conn.Query(query))
}

// GetEnabledContracts retrieves contracts with ingestion enabled
func (db *DB) GetEnabledContracts() ([]*models.Contract, error) {
	query := `
		SELECT code, name, enabled, added_at, updated_at
		FROM contracts
		WHERE enabled = true
		ORDER BY code ASC
	`
	return db.scanContracts(db.conn.Query(query))
}

// DeleteContract removes a contract from the ingestion list
func (db *DB) DeleteContract(code string) error {
	result, err := db.conn.Exec(`DELETE FROM contracts WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("contract not found: %s", code)
	}
	return nil
}

func (db *DB) scanContracts(rows *sql.Rows, err error) ([]*models.Contract, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to get contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*models.Contract
	for rows.Next() {
		var c models.Contract
		var name sql.NullString
		if err := rows.Scan(&c.Code, &name, &c.Enabled, &c.AddedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		if name.Valid {
			c.Name = name.String
		}
		contracts = append(contracts, &c)
	}
	return contracts, nil
}
