// Package sqltest provides seeded databases for integration tests: an
// embedded sqlite file plus disposable postgres, mysql and sqlserver
// containers.
package sqltest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type Customer struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:100;not null"`
	Email     string    `gorm:"size:100;uniqueIndex;not null"`
	Country   string    `gorm:"size:50"`
	CreatedAt time.Time
}

type Order struct {
	ID          uint     `gorm:"primaryKey"`
	CustomerID  uint     `gorm:"not null;index"`
	Customer    Customer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	TotalAmount float64  `gorm:"not null"`
	Status      string   `gorm:"size:20;default:'pending';not null"`
	PlacedAt    *time.Time // null until the order is placed
}

// Seed migrates and fills a small store schema: customers with orders
// hanging off them via a real foreign key.
func Seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.AutoMigrate(&Customer{}, &Order{}))

	customers := []Customer{
		{Name: "Ada Lovelace", Email: "ada@example.com", Country: "UK"},
		{Name: "Grace Hopper", Email: "grace@example.com", Country: "US"},
		{Name: "Linus Torvalds", Email: "linus@example.com", Country: "FI"},
	}
	require.NoError(t, db.Create(&customers).Error)

	placed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	orders := []Order{
		{CustomerID: customers[0].ID, TotalAmount: 99.50, Status: "shipped", PlacedAt: &placed},
		{CustomerID: customers[0].ID, TotalAmount: 12.00, Status: "pending"},
		{CustomerID: customers[1].ID, TotalAmount: 150.25, Status: "shipped", PlacedAt: &placed},
		{CustomerID: customers[2].ID, TotalAmount: 7.99, Status: "cancelled"},
	}
	require.NoError(t, db.Create(&orders).Error)

	t.Logf("seeded %d customers and %d orders", len(customers), len(orders))
}
