package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/hub"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

const DefaultInactivityWindow = 30 * time.Minute

// scopeCart is the in-memory cart of one table. items is only valid once loaded.
type scopeCart struct {
	mutex     sync.Mutex
	loaded    bool
	evicted   bool
	items     []models.CartLineItem
	touchedAt time.Time
}

// CartService keeps one cart per (restaurant, table) and persists it to the store
type CartService struct {
	store      database.Store
	events     hub.Publisher
	inactivity time.Duration
	now        func() time.Time

	mutex  sync.Mutex
	scopes map[models.Scope]*scopeCart
}

func NewCartService(store database.Store, events hub.Publisher, inactivity time.Duration) *CartService {
	if events == nil {
		events = hub.Nop{}
	}
	if inactivity <= 0 {
		inactivity = DefaultInactivityWindow
	}
	return &CartService{
		store:      store,
		events:     events,
		inactivity: inactivity,
		now:        time.Now,
		scopes:     make(map[models.Scope]*scopeCart),
	}
}

// AddItem adds quantity of menu with the given selection. A line with the
// same menu and selection is merged and keeps its original unit price.
func (cs *CartService) AddItem(ctx context.Context, scope models.Scope, menu models.MenuItem, quantity int, selectedOptions map[string]string, selectedOptionIDs []int64) (models.Cart, error) {
	if quantity < 1 {
		return models.Cart{}, ErrInvalidQuantity
	}
	if !menu.IsAvailable {
		return models.Cart{}, ErrMenuUnavailable
	}

	line := BuildLineItem(menu, quantity, selectedOptions, selectedOptionIDs)
	return cs.mutate(ctx, scope, func(sc *scopeCart) (bool, error) {
		for i := range sc.items {
			if sc.items[i].LineKey == line.LineKey {
				sc.items[i].Quantity += quantity
				sc.items[i].Recalculate()
				return true, nil
			}
		}
		sc.items = append(sc.items, line)
		return true, nil
	})
}

// UpdateQuantity sets the quantity of a line. Values below 1 leave the cart unchanged.
func (cs *CartService) UpdateQuantity(ctx context.Context, scope models.Scope, lineKey string, quantity int) (models.Cart, error) {
	return cs.mutate(ctx, scope, func(sc *scopeCart) (bool, error) {
		if quantity < 1 {
			return false, nil
		}
		i := indexOfLine(sc.items, lineKey)
		if i < 0 {
			return false, ErrLineNotFound
		}
		sc.items[i].Quantity = quantity
		sc.items[i].Recalculate()
		return true, nil
	})
}

// RemoveItem drops exactly one line, the others keep their order
func (cs *CartService) RemoveItem(ctx context.Context, scope models.Scope, lineKey string) (models.Cart, error) {
	return cs.mutate(ctx, scope, func(sc *scopeCart) (bool, error) {
		i := indexOfLine(sc.items, lineKey)
		if i < 0 {
			return false, ErrLineNotFound
		}
		items := make([]models.CartLineItem, 0, len(sc.items)-1)
		items = append(items, sc.items[:i]...)
		items = append(items, sc.items[i+1:]...)
		sc.items = items
		return true, nil
	})
}

// ClearCart empties the cart and persists the empty list
func (cs *CartService) ClearCart(ctx context.Context, scope models.Scope) (models.Cart, error) {
	return cs.mutate(ctx, scope, func(sc *scopeCart) (bool, error) {
		sc.items = make([]models.CartLineItem, 0)
		return true, nil
	})
}

// Cart returns the current snapshot of a scope
func (cs *CartService) Cart(ctx context.Context, scope models.Scope) (models.Cart, error) {
	return cs.mutate(ctx, scope, func(*scopeCart) (bool, error) {
		return false, nil
	})
}

// EvictIdle forgets in-memory carts untouched since cutoff. Busy scopes are skipped.
func (cs *CartService) EvictIdle(cutoff time.Time) int {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	evicted := 0
	for scope, sc := range cs.scopes {
		if !sc.mutex.TryLock() {
			continue
		}
		if sc.touchedAt.Before(cutoff) {
			sc.evicted = true
			delete(cs.scopes, scope)
			evicted++
		}
		sc.mutex.Unlock()
	}
	return evicted
}

// Mounted returns how many scopes are held in memory
func (cs *CartService) Mounted() int {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	return len(cs.scopes)
}

func (cs *CartService) InactivityWindow() time.Duration {
	return cs.inactivity
}

// lock returns the locked, live cart of scope
func (cs *CartService) lock(scope models.Scope) *scopeCart {
	for {
		cs.mutex.Lock()
		sc, ok := cs.scopes[scope]
		if !ok {
			sc = &scopeCart{}
			cs.scopes[scope] = sc
		}
		cs.mutex.Unlock()

		sc.mutex.Lock()
		if !sc.evicted {
			return sc
		}
		sc.mutex.Unlock()
	}
}

func (cs *CartService) mutate(ctx context.Context, scope models.Scope, fn func(sc *scopeCart) (bool, error)) (models.Cart, error) {
	sc := cs.lock(scope)
	defer sc.mutex.Unlock()

	cs.touch(ctx, scope, sc)
	if err := cs.mount(ctx, scope, sc); err != nil {
		return models.Cart{}, err
	}

	changed, err := fn(sc)
	if err != nil {
		return models.Cart{}, err
	}

	cart := cs.snapshot(scope, sc.items)
	if changed {
		cs.persist(ctx, scope, sc.items)
		cs.events.Publish(scope.String(), hub.EventCartUpdate, cart)
	}
	return cart, nil
}

// touch applies the staleness rule and records activity
func (cs *CartService) touch(ctx context.Context, scope models.Scope, sc *scopeCart) {
	now := cs.now()
	last := sc.touchedAt

	raw, ok, err := cs.store.Get(ctx, scope.LastActivityKey())
	if err != nil {
		utils.ErrorLogger.Errorf("Error reading last activity of %s: %v", scope, err)
	} else if ok {
		if ms, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			last = time.UnixMilli(ms)
		}
	}

	if !last.IsZero() && now.Sub(last) > cs.inactivity {
		utils.InfoLogger.WithFields(logrus.Fields{
			"scope":     scope.String(),
			"idleSince": last.Format(time.RFC3339),
		}).Info("Discarding stale cart")
		if err := cs.store.Delete(ctx, scope.CartKey()); err != nil {
			utils.ErrorLogger.Errorf("Error discarding stale cart of %s: %v", scope, err)
		}
		sc.items = make([]models.CartLineItem, 0)
		sc.loaded = true
	}

	sc.touchedAt = now
	if err := cs.store.Set(ctx, scope.LastActivityKey(), strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		utils.ErrorLogger.Errorf("Error writing last activity of %s: %v", scope, err)
	}
}

// mount reads the persisted cart once. Until it succeeds nothing is written.
func (cs *CartService) mount(ctx context.Context, scope models.Scope, sc *scopeCart) error {
	if sc.loaded {
		return nil
	}

	raw, ok, err := cs.store.Get(ctx, scope.CartKey())
	if err != nil {
		return fmt.Errorf("load cart of %s: %w", scope, err)
	}

	sc.items = make([]models.CartLineItem, 0)
	sc.loaded = true
	if !ok {
		return nil
	}

	var items []models.CartLineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		utils.ErrorLogger.Errorf("Malformed cart of %s, starting empty: %v", scope, err)
		return nil
	}
	for _, item := range items {
		if item.MenuID == 0 || item.Quantity < 1 {
			utils.ErrorLogger.Errorf("Dropping invalid cart line of %s: menu=%d quantity=%d", scope, item.MenuID, item.Quantity)
			continue
		}
		if item.SelectedOptions == nil {
			item.SelectedOptions = make(map[string]string)
		}
		item.SelectedOptionIDs = models.NormalizeOptionIDs(item.SelectedOptionIDs)
		if item.LineKey == "" {
			item.LineKey = models.LineKey(item.MenuID, item.SelectedOptions, item.SelectedOptionIDs)
		}
		item.Recalculate()
		sc.items = append(sc.items, item)
	}
	return nil
}

func (cs *CartService) persist(ctx context.Context, scope models.Scope, items []models.CartLineItem) {
	if items == nil {
		items = make([]models.CartLineItem, 0)
	}
	if err := database.SetJSON(ctx, cs.store, scope.CartKey(), items); err != nil {
		utils.ErrorLogger.Errorf("Error persisting cart of %s: %v", scope, err)
	}
}

func (cs *CartService) snapshot(scope models.Scope, items []models.CartLineItem) models.Cart {
	cart := models.NewCart(scope, items)
	cart.FormattedTotal = utils.FormatCurrencyKRW(cart.TotalAmount)
	return cart
}

func indexOfLine(items []models.CartLineItem, lineKey string) int {
	for i := range items {
		if items[i].LineKey == lineKey {
			return i
		}
	}
	return -1
}

// BuildLineItem prices a selection against the catalog entry. Options are
// matched by name; a name the catalog no longer has is kept but costs nothing.
// A required group without a choice gets its first option.
func BuildLineItem(menu models.MenuItem, quantity int, selectedOptions map[string]string, selectedOptionIDs []int64) models.CartLineItem {
	options := make(map[string]string)
	remaining := make(map[int64]struct{})
	for _, id := range selectedOptionIDs {
		remaining[id] = struct{}{}
	}

	unitPrice := menu.Price
	resolved := make([]int64, 0)
	for _, group := range menu.SortedGroups() {
		var chosen *models.Option
		name := selectedOptions[group.GroupName]

		if name != "" {
			if opt, ok := group.FindByName(name); ok {
				chosen = &opt
			}
		} else {
			for _, opt := range group.Options {
				if _, ok := remaining[opt.OptionID]; ok {
					o := opt
					chosen = &o
					name = opt.OptionName
					break
				}
			}
			if chosen == nil && group.Required() && len(group.Options) > 0 {
				o := group.Options[0]
				chosen = &o
				name = o.OptionName
			}
		}

		// ids of this group are replaced by the resolved choice
		for _, opt := range group.Options {
			delete(remaining, opt.OptionID)
		}
		if name == "" {
			continue
		}
		options[group.GroupName] = name
		if chosen != nil {
			unitPrice = unitPrice.Add(chosen.OptionPrice)
			resolved = append(resolved, chosen.OptionID)
		}
	}

	for group, name := range selectedOptions {
		if _, ok := options[group]; !ok && name != "" {
			options[group] = name
		}
	}
	for id := range remaining {
		resolved = append(resolved, id)
	}
	ids := models.NormalizeOptionIDs(resolved)

	line := models.CartLineItem{
		LineKey:           models.LineKey(menu.MenuID, options, ids),
		MenuID:            menu.MenuID,
		Name:              menu.Name,
		UnitImage:         menu.MenuImgURL,
		UnitPrice:         unitPrice,
		Quantity:          quantity,
		SelectedOptions:   options,
		SelectedOptionIDs: ids,
	}
	line.Recalculate()
	return line
}
