package journal

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry is a journaled order event row. Monetary fields are stored as
// decimal strings to avoid float drift in the audit trail.
type Entry struct {
	gorm.Model `json:"-"`
	EntryID    string    `gorm:"uniqueIndex" json:"entry_id"`
	EventType  string    `json:"event_type"`
	OrderID    string    `gorm:"index" json:"order_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	OrderType  string    `json:"order_type"`
	Price      string    `json:"price"`
	Amount     string    `json:"amount"`
	Filled     string    `json:"filled"`
	Status     string    `json:"status"`
	EmittedAt  time.Time `json:"emitted_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type Database struct {
	db *gorm.DB
}

// NewDatabase opens (or creates) the journal database at path and runs
// migrations. Use ":memory:" for an ephemeral journal.
func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

func (d *Database) CreateEntry(entry *Entry) error {
	return d.db.Create(entry).Error
}

// EntriesForOrder returns all journaled events for an order id in
// insertion order.
func (d *Database) EntriesForOrder(orderID string) ([]Entry, error) {
	var entries []Entry
	if err := d.db.Where("order_id = ?", orderID).Order("id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the total number of journaled events.
func (d *Database) Count() (int64, error) {
	var count int64
	if err := d.db.Model(&Entry{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
