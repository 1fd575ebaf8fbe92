package models

import "time"

type BlogPost struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	Slug        string     `json:"slug" gorm:"uniqueIndex"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	CoverImage  string     `json:"cover_image"`
	Published   bool       `json:"published" gorm:"index"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (BlogPost) TableName() string {
	return "blog_posts"
}

type Testimonial struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Quote     string    `json:"quote"`
	Rating    int       `json:"rating"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (Testimonial) TableName() string {
	return "testimonials"
}

type TeamMember struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Photo     string `json:"photo"`
	Languages string `json:"languages"`
	SortOrder int    `json:"sort_order"`
	IsActive  bool   `json:"is_active"`
}

func (TeamMember) TableName() string {
	return "team_members"
}
