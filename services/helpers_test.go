package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/models"
)

var testScope = models.Scope{RestaurantID: 3, TableID: 5}

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func simpleMenu(id int64, name string, p int64) models.MenuItem {
	return models.MenuItem{MenuID: id, Name: name, Price: price(p), IsAvailable: true, Category: "Main"}
}

// bibimbap has a required size group and an optional topping group
func bibimbap() models.MenuItem {
	return models.MenuItem{
		MenuID:      1,
		Name:        "Bibimbap",
		Category:    "Rice",
		Price:       price(8900),
		MenuImgURL:  "https://img/1.png",
		IsAvailable: true,
		OptionGroups: []models.OptionGroup{
			{
				GroupID: 20, GroupName: "Topping", DisplaySequence: 2,
				Options: []models.Option{
					{OptionID: 201, OptionName: "Cheese", OptionPrice: price(700)},
					{OptionID: 202, OptionName: "Egg", OptionPrice: price(500)},
				},
			},
			{
				GroupID: 10, GroupName: "Size", DisplaySequence: 1, IsDefault: true,
				Options: []models.Option{
					{OptionID: 101, OptionName: "Regular", OptionPrice: price(0)},
					{OptionID: 102, OptionName: "Large", OptionPrice: price(1500)},
				},
			},
		},
	}
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(scope string, event string, data interface{}) {
	m.Called(scope, event, data)
}

// recordingPublisher keeps every event, for tests that only inspect the sequence
type recordingPublisher struct {
	mutex  sync.Mutex
	events []string
	data   []interface{}
}

func (r *recordingPublisher) Publish(_ string, event string, data interface{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, event)
	r.data = append(r.data, data)
}

func (r *recordingPublisher) Events() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]string(nil), r.events...)
}

// failingStore fails reads of one key and records every write
type failingStore struct {
	*database.MemoryStore
	failKey string
	writes  []string
}

func (s *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == s.failKey {
		return "", false, errors.New("store unavailable")
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	s.writes = append(s.writes, key)
	return s.MemoryStore.Set(ctx, key, value)
}

type fakeClock struct {
	mutex sync.Mutex
	t     time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.t = c.t.Add(d)
}
