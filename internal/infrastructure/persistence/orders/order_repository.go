// Package orders persists checkout orders.
package orders

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/database"
)

var ErrOrderNotFound = errors.New("order not found")

// Order is a simulated, always-successful purchase.
type Order struct {
	ID                string          `db:"id" json:"id"`
	ProductID         string          `db:"product_id" json:"productId"`
	ProductName       string          `db:"product_name" json:"productName"`
	Amount            string          `db:"amount" json:"amount"`
	Currency          string          `db:"currency" json:"currency"`
	CustomerName      string          `db:"customer_name" json:"customerName"`
	CustomerEmail     string          `db:"customer_email" json:"customerEmail"`
	CustomerDocument  string          `db:"customer_document" json:"-"`
	CustomerPhone     string          `db:"customer_phone" json:"-"`
	CustomerPostcode  string          `db:"customer_postcode" json:"-"`
	VisitorID         string          `db:"visitor_id" json:"visitorId"`
	AttributionJSON   string          `db:"attribution" json:"-"`
	CreatedAt         int64           `db:"created_at" json:"createdAt"`
	PurchaseTrackedAt sql.NullInt64   `db:"purchase_tracked_at" json:"-"`
	Attribution       attribution.Set `db:"-" json:"attribution"`
}

// SQLOrderRepository stores orders.
type SQLOrderRepository struct {
	db *database.DB
}

func NewSQLOrderRepository(db *database.DB) *SQLOrderRepository {
	return &SQLOrderRepository{db: db}
}

// Create inserts a new order. CreatedAt defaults to now.
func (r *SQLOrderRepository) Create(order *Order) error {
	const query = `
		INSERT INTO orders (id, product_id, product_name, amount, currency, customer_name, customer_email,
			customer_document, customer_phone, customer_postcode, visitor_id, attribution, created_at)
		VALUES (:id, :product_id, :product_name, :amount, :currency, :customer_name, :customer_email,
			:customer_document, :customer_phone, :customer_postcode, :visitor_id, :attribution, :created_at)`

	attr, err := json.Marshal(order.Attribution)
	if err != nil {
		return fmt.Errorf("failed to encode order attribution: %w", err)
	}
	order.AttributionJSON = string(attr)
	if order.CreatedAt == 0 {
		order.CreatedAt = database.Now()
	}

	start := time.Now()
	if _, err := r.db.NamedExec(query, order); err != nil {
		r.db.Logger().Database().Error("Order insert failed", "error", err.Error(), "orderId", order.ID)
		return fmt.Errorf("failed to store order: %w", err)
	}
	r.db.Logger().Database().Info("Order insert completed", "orderId", order.ID, "productId", order.ProductID, "duration", time.Since(start))
	r.db.ObserveQuery("orders:insert", start)
	return nil
}

// FindByID loads an order or returns ErrOrderNotFound.
func (r *SQLOrderRepository) FindByID(id string) (*Order, error) {
	const query = `SELECT * FROM orders WHERE id = ?`

	var order Order
	err := r.db.Get(&order, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(order.AttributionJSON), &order.Attribution); err != nil {
		r.db.Logger().Database().Warn("Order attribution malformed", "orderId", id, "error", err.Error())
		order.Attribution = attribution.Set{}
	}
	return &order, nil
}

// MarkPurchaseTracked claims the purchase event of an order. It returns
// true for exactly one caller per order.
func (r *SQLOrderRepository) MarkPurchaseTracked(id string) (bool, error) {
	const query = `UPDATE orders SET purchase_tracked_at = ? WHERE id = ? AND purchase_tracked_at IS NULL`

	res, err := r.db.Exec(query, database.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark purchase tracked for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// Count returns the number of orders created since the given time.
func (r *SQLOrderRepository) Count(since time.Time) (int, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM orders WHERE created_at >= ?`, since.UnixMilli()); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}
