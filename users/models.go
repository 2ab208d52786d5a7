package users

import (
	"time"

	"gorm.io/gorm"
)

// Columns is the header row used when exporting users
var Columns = []string{"id", "email", "name", "role", "active", "created_at", "updated_at"}

// UserModel is a user row as stored in the database
type UserModel struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"not null" json:"name"`
	Role      string    `gorm:"not null" json:"role"`   // admin, author, reader, manager
	Active    bool      `gorm:"not null" json:"active"` // required in import
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserModel) TableName() string {
	return "users"
}

// AutoMigrate creates the users table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{})
}
