package models

import "time"

// MenuItem is one extracted dish together with its resolved image.
// Items are created once by the store and never mutated afterwards.
type MenuItem struct {
	ID          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID   int       `json:"sessionId" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"not null"`
	ImageURL    string    `json:"imageUrl" gorm:"column:image_url;not null"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MenuSession records one processing run. OriginalText holds the raw
// pasted text, or the sentinel "Uploaded image: <filename>" when the
// input was an image.
type MenuSession struct {
	ID           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	OriginalText string    `json:"originalText" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName keeps the table names aligned with the original schema.
func (MenuItem) TableName() string { return "menu_items" }

// TableName keeps the table names aligned with the original schema.
func (MenuSession) TableName() string { return "menu_sessions" }
