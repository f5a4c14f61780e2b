package models

// Doctor is the bookable profile of a doctor account. It is deactivated, never deleted.
type Doctor struct {
	BaseModel
	UserID       string  `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	DepartmentID *string `gorm:"size:36;index" json:"departmentId"`
	Title        string  `gorm:"size:50" json:"title"`
	Bio          string  `gorm:"type:text" json:"bio,omitempty"`
	Room         string  `gorm:"size:20" json:"room,omitempty"`
	RoomPhone    string  `gorm:"size:20" json:"roomPhone,omitempty"`
	IsActive     bool    `gorm:"not null;index" json:"isActive"`
}

// InDepartment reports whether the doctor is currently assigned to departmentID.
func (d *Doctor) InDepartment(departmentID string) bool {
	return d.DepartmentID != nil && *d.DepartmentID == departmentID
}
