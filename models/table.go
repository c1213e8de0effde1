package models

import "fmt"

// Scope identifies one table of one restaurant. Carts, current orders
// and reviews are all kept per scope.
type Scope struct {
	RestaurantID int64 `json:"restaurantId"`
	TableID      int64 `json:"tableId"`
}

func (s Scope) String() string {
	return fmt.Sprintf("%d_%d", s.RestaurantID, s.TableID)
}

// Valid reports whether both ids are set
func (s Scope) Valid() bool {
	return s.RestaurantID > 0 && s.TableID > 0
}

func (s Scope) CartKey() string         { return "cart_" + s.String() }
func (s Scope) CurrentOrderKey() string { return "nowOrder_" + s.String() }
func (s Scope) LastActivityKey() string { return "lastActivity_" + s.String() }
func (s Scope) ReviewedKey() string     { return "reviewed_" + s.String() }
func (s Scope) OrderHistoryKey() string { return "order_" + s.String() }
func (s Scope) SettledKey() string      { return "paidOrder_" + s.String() }
