package models

import "time"

// Country is a destination country offered for mock interviews. Rows are
// managed by the admin surface; the pipeline only reads names for prompts
// and report headers.
type Country struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;uniqueIndex"`
	FlagEmoji string
	CreatedAt time.Time
}

// VisaType is a visa category under a country, carrying the provider
// assistant that conducts interviews for it. An empty AssistantID falls
// back to the globally configured assistant.
type VisaType struct {
	ID          uint    `gorm:"primaryKey"`
	CountryID   uint    `gorm:"not null;index"`
	Country     Country `gorm:"foreignKey:CountryID"`
	Name        string  `gorm:"not null"`
	AssistantID string
	CreatedAt   time.Time
}
