package models

// BloodType is stored in the A_POS / O_NEG form the mobile client sends.
type BloodType string

const (
	BloodTypeAPos  BloodType = "A_POS"
	BloodTypeANeg  BloodType = "A_NEG"
	BloodTypeBPos  BloodType = "B_POS"
	BloodTypeBNeg  BloodType = "B_NEG"
	BloodTypeABPos BloodType = "AB_POS"
	BloodTypeABNeg BloodType = "AB_NEG"
	BloodTypeOPos  BloodType = "O_POS"
	BloodTypeONeg  BloodType = "O_NEG"
)

// HealthProfile holds the self-reported health data of one account.
// Every field is optional; a PUT replaces all of them.
type HealthProfile struct {
	BaseModel
	UserID    string     `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Age       *int       `json:"age"`
	BloodType *BloodType `gorm:"size:10" json:"bloodType"`
	HeightCm  *float64   `json:"height"`
	WeightKg  *float64   `json:"weight"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
