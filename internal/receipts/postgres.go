package receipts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jogardn/fireworks-storefront/pkg/models"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type PostgresStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

// OpenPostgres connects, waits for the database to accept connections and
// creates the receipt tables.
func OpenPostgres(ctx context.Context, dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var pingErr error
	for i := 0; i < 15; i++ {
		if pingErr = db.PingContext(ctx); pingErr == nil {
			logger.Info("Database connection established")
			break
		}
		logger.Info("Waiting for database...")
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("database not reachable: %w", pingErr)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStore) Save(ctx context.Context, r *Receipt) error {
	customer, err := json.Marshal(r.Order.Customer)
	if err != nil {
		return fmt.Errorf("failed to encode customer: %w", err)
	}
	payment, err := json.Marshal(r.Payment)
	if err != nil {
		return fmt.Errorf("failed to encode payment details: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO receipts (order_id, session_id, customer, subtotal, discount, net_amount,
			status, payment, order_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (order_id, session_id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, query, r.Order.ID, r.SessionID, string(customer),
		r.Order.Total, r.Order.Discount, r.Order.NetAmount, string(r.Order.Status),
		string(payment), r.Order.OrderDate, r.CreatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		p.logger.WithFields(logrus.Fields{
			"order_id":   r.Order.ID,
			"session_id": r.SessionID,
		}).Warn("Receipt already recorded")
		return nil
	}

	for i, item := range r.Order.Items {
		product, err := json.Marshal(item.Product)
		if err != nil {
			return fmt.Errorf("failed to encode product %d: %w", item.Product.ID, err)
		}
		itemQuery := `
			INSERT INTO receipt_items (order_id, session_id, position, product_id, quantity, product)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, itemQuery, r.Order.ID, r.SessionID, i, item.Product.ID, item.Quantity, string(product)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *PostgresStore) Get(ctx context.Context, orderID, sessionID string) (*Receipt, error) {
	r := &Receipt{}
	var customer, payment, status string

	query := `
		SELECT order_id, session_id, customer, subtotal, discount, net_amount,
			status, payment, order_date, created_at
		FROM receipts WHERE order_id = $1 AND session_id = $2
	`
	err := p.db.QueryRowContext(ctx, query, orderID, sessionID).Scan(
		&r.Order.ID, &r.SessionID, &customer, &r.Order.Total, &r.Order.Discount,
		&r.Order.NetAmount, &status, &payment, &r.Order.OrderDate, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Order.Status = models.OrderStatus(status)
	if err := json.Unmarshal([]byte(customer), &r.Order.Customer); err != nil {
		return nil, fmt.Errorf("failed to decode customer: %w", err)
	}
	if err := json.Unmarshal([]byte(payment), &r.Payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment details: %w", err)
	}

	itemsQuery := `
		SELECT quantity, product
		FROM receipt_items WHERE order_id = $1 AND session_id = $2 ORDER BY position
	`
	rows, err := p.db.QueryContext(ctx, itemsQuery, orderID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.CartItem
		var product string
		if err := rows.Scan(&item.Quantity, &product); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(product), &item.Product); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		r.Order.Items = append(r.Order.Items, item)
	}
	return r, rows.Err()
}

func createTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS receipts (
			order_id VARCHAR(255) NOT NULL,
			session_id VARCHAR(255) NOT NULL,
			customer JSONB NOT NULL,
			subtotal DECIMAL(12,2) NOT NULL,
			discount DECIMAL(12,2) NOT NULL,
			net_amount DECIMAL(12,2) NOT NULL,
			status VARCHAR(50) NOT NULL,
			payment JSONB NOT NULL,
			order_date TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (order_id, session_id)
		)`,
		`CREATE TABLE IF NOT EXISTS receipt_items (
			id SERIAL PRIMARY KEY,
			order_id VARCHAR(255) NOT NULL,
			session_id VARCHAR(255) NOT NULL,
			position INTEGER NOT NULL,
			product_id BIGINT NOT NULL,
			quantity INTEGER NOT NULL,
			product JSONB NOT NULL,
			FOREIGN KEY (order_id, session_id) REFERENCES receipts(order_id, session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_receipts_session_id ON receipts(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_receipt_items_receipt ON receipt_items(order_id, session_id)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
