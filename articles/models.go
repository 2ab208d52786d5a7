package articles

import (
	"time"

	"gorm.io/gorm"
)

// Columns is the header row used when exporting articles
var Columns = []string{"id", "slug", "title", "body", "author_id", "tags", "status", "published_at", "created_at"}

// ArticleModel is an article row as stored in the database
type ArticleModel struct {
	ID          string     `gorm:"primaryKey;type:text" json:"id"`
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Title       string     `gorm:"not null" json:"title"`
	Body        string     `gorm:"type:text;not null" json:"body"`
	AuthorID    string     `gorm:"not null;index" json:"author_id"`
	Tags        string     `gorm:"type:text" json:"tags"`                  // JSON array of tag strings
	Status      string     `gorm:"not null;default:'draft'" json:"status"` // draft or published
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
}

func (ArticleModel) TableName() string {
	return "articles"
}

// AutoMigrate creates the articles table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ArticleModel{})
}
