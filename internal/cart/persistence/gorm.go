package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartState is the row backing a cart in SQL storage.
type CartState struct {
	CartKey   string    `gorm:"column:cart_key;primaryKey;type:text"`
	Payload   []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (CartState) TableName() string { return "cart_states" }

// Gorm stores cart states in the application database. It has no broker, so
// Subscribe only sees writes made through the same Gorm value.
type Gorm struct {
	db  *gorm.DB
	now func() time.Time

	mu        sync.Mutex
	listeners map[string]map[int]func()
	next      int
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{
		db:        db,
		now:       time.Now,
		listeners: make(map[string]map[int]func()),
	}
}

func (g *Gorm) Get(ctx context.Context, key string) ([]byte, error) {
	var row CartState
	err := g.db.WithContext(ctx).Where("cart_key = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cartdomain.ErrStateNotFound
		}
		return nil, err
	}
	return row.Payload, nil
}

func (g *Gorm) Set(ctx context.Context, key string, value []byte) error {
	row := CartState{CartKey: key, Payload: value, UpdatedAt: g.now().UTC()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return err
	}

	g.mu.Lock()
	fns := make([]func(), 0, len(g.listeners[key]))
	for _, fn := range g.listeners[key] {
		fns = append(fns, fn)
	}
	g.mu.Unlock()
	for _, fn := range fns {
		go fn()
	}
	return nil
}

func (g *Gorm) Subscribe(_ context.Context, key string, onChange func()) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	if g.listeners[key] == nil {
		g.listeners[key] = make(map[int]func())
	}
	g.listeners[key][id] = onChange
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.listeners[key], id)
	}, nil
}
