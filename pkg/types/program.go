package types

import "time"

// Program is one of the organisation's charitable programs shown on the
// public site. The list is owned by internal/seed.
type Program struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Slug         string    `db:"slug" json:"slug"`
	Description  string    `db:"description" json:"description"`
	Image        *string   `db:"image" json:"image,omitempty"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}

type OrgContact struct {
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

type OrgInfo struct {
	Name     string     `json:"name"`
	Mission  string     `json:"mission,omitempty"`
	Founded  string     `json:"founded,omitempty"`
	Programs []*Program `json:"programs"`
	Contact  OrgContact `json:"contact"`
}
