package models

import "time"

// Post is a blog post. Documents are serialised with "_id" like the document store returns them.
type Post struct {
	ID        string    `gorm:"primaryKey;size:64" json:"_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ImagePath string    `gorm:"size:1024" json:"imagePath"`
	Creator   string    `gorm:"index;size:64;not null" json:"creator"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// PostUpdate carries the replaceable fields of a post. Creator is never part of it.
type PostUpdate struct {
	Title     string
	Content   string
	ImagePath string
}

// OwnerFilter selects a post only when both id and creator match.
type OwnerFilter struct {
	ID      string
	Creator string
}
