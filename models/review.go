package models

import "time"

// ReviewEvent is published once a customer reviews a menu
type ReviewEvent struct {
	Scope     Scope     `json:"scope"`
	MenuID    int64     `json:"menuId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
