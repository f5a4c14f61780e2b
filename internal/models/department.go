package models

// Department is seeded administratively; only IsActive changes during normal operation.
type Department struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Code        string `gorm:"size:20" json:"code"`
	Description string `gorm:"size:255" json:"description,omitempty"`
	Phone       string `gorm:"size:30" json:"phone,omitempty"`
	Location    string `gorm:"size:50" json:"location,omitempty"`
	IsActive    bool   `gorm:"not null;index" json:"isActive"`
}
