package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Option is one choice inside an option group
type Option struct {
	OptionID    int64           `json:"optionId"`
	OptionName  string          `json:"optionName"`
	OptionPrice decimal.Decimal `json:"optionPrice"`
}

// OptionGroup groups options of a menu. IsDefault marks a required group.
type OptionGroup struct {
	GroupID         int64    `json:"groupId"`
	GroupName       string   `json:"groupName"`
	DisplaySequence int      `json:"displaySequence"`
	IsDefault       bool     `json:"isDefault"`
	Options         []Option `json:"options"`
}

// Required reports whether a customer must end up with an option of this group
func (g OptionGroup) Required() bool {
	return g.IsDefault
}

// FindByName returns the option with the given name
func (g OptionGroup) FindByName(name string) (Option, bool) {
	for _, opt := range g.Options {
		if opt.OptionName == name {
			return opt, true
		}
	}
	return Option{}, false
}

// FindByID returns the option with the given id
func (g OptionGroup) FindByID(id int64) (Option, bool) {
	for _, opt := range g.Options {
		if opt.OptionID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// MenuItem is a catalog entry as served by the merchant service
type MenuItem struct {
	MenuID       int64           `json:"menuId"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	MenuImgURL   string          `json:"menuImgUrl"`
	IsAvailable  bool            `json:"isAvailable"`
	OptionGroups []OptionGroup   `json:"optionGroups"`
}

// SortedGroups returns the option groups ordered by display sequence
func (m MenuItem) SortedGroups() []OptionGroup {
	groups := make([]OptionGroup, len(m.OptionGroups))
	copy(groups, m.OptionGroups)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].DisplaySequence < groups[j].DisplaySequence
	})
	return groups
}

// MerchantOverview is the header info of a restaurant
type MerchantOverview struct {
	MerchantID     int64  `json:"merchantId"`
	MerchantName   string `json:"merchantName"`
	MerchantImgURL string `json:"merchantImgUrl"`
}

// Catalog is what the menu page needs in one response
type Catalog struct {
	Categories []string   `json:"categories"`
	Menus      []MenuItem `json:"menus"`
}
