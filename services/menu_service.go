package services

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/table-order/models"
)

type cachedMenus struct {
	menus     []models.MenuItem
	fetchedAt time.Time
}

// MenuService serves a restaurant's catalog with a short-lived cache
type MenuService struct {
	source CatalogSource
	ttl    time.Duration
	now    func() time.Time

	mutex sync.Mutex
	cache map[int64]cachedMenus
}

func NewMenuService(source CatalogSource, ttl time.Duration) *MenuService {
	return &MenuService{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[int64]cachedMenus),
	}
}

// Menus returns the menus of a merchant, option groups ordered by display sequence
func (ms *MenuService) Menus(ctx context.Context, merchantID int64) ([]models.MenuItem, error) {
	ms.mutex.Lock()
	cached, ok := ms.cache[merchantID]
	ms.mutex.Unlock()
	if ok && ms.ttl > 0 && ms.now().Sub(cached.fetchedAt) < ms.ttl {
		return cached.menus, nil
	}

	menus, err := ms.source.ListMenus(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	for i := range menus {
		menus[i].OptionGroups = menus[i].SortedGroups()
	}

	ms.mutex.Lock()
	ms.cache[merchantID] = cachedMenus{menus: menus, fetchedAt: ms.now()}
	ms.mutex.Unlock()
	return menus, nil
}

// Catalog returns menus plus their categories in first-seen order
func (ms *MenuService) Catalog(ctx context.Context, merchantID int64) (*models.Catalog, error) {
	menus, err := ms.Menus(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	categories := make([]string, 0)
	seen := make(map[string]struct{})
	for _, menu := range menus {
		if menu.Category == "" {
			continue
		}
		if _, ok := seen[menu.Category]; ok {
			continue
		}
		seen[menu.Category] = struct{}{}
		categories = append(categories, menu.Category)
	}
	return &models.Catalog{Categories: categories, Menus: menus}, nil
}

// Menu finds one menu of a merchant
func (ms *MenuService) Menu(ctx context.Context, merchantID, menuID int64) (*models.MenuItem, error) {
	menus, err := ms.Menus(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	for _, menu := range menus {
		if menu.MenuID == menuID {
			m := menu
			return &m, nil
		}
	}
	return nil, ErrMenuNotFound
}

func (ms *MenuService) Overview(ctx context.Context, merchantID int64) (*models.MerchantOverview, error) {
	return ms.source.Overview(ctx, merchantID)
}

// Invalidate drops the cached menus of a merchant
func (ms *MenuService) Invalidate(merchantID int64) {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	delete(ms.cache, merchantID)
}
