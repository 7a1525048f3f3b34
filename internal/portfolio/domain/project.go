package domain

import "time"

// Project is a downloadable artifact with an optional cover image.
type Project struct {
	ID          string
	Title       string
	Description string
	Filename    string  // stored artifact name on disk
	CoverImage  *string // stored cover image name, nil when none uploaded
	CategoryID  *string
	OwnerID     string
	Downloads   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Search     string // substring match on title/description
	CategoryID string // exact match when non-empty
}

type Category struct {
	ID        string
	Name      string // unique
	CreatedAt time.Time
}
