package domain

import "time"

// Site is one tenant: a host-addressable page tree.
type Site struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	CreatedAt time.Time `json:"createdAt"`
}
