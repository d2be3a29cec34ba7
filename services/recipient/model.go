package recipient

import (
	"time"
)

type Kind string

const (
	KindLead Kind = "lead"
	KindUser Kind = "user"
)

// Lead is a prospective customer in the CRM. Read-only here.
type Lead struct {
	ID          string    `gorm:"column:lead_id;primaryKey;type:char(26)"`
	Name        string    `gorm:"column:name;type:varchar(255)"`
	Phone       string    `gorm:"column:phone;type:varchar(50)"`
	Email       string    `gorm:"column:email;type:varchar(255)"`
	Product     string    `gorm:"column:product;type:varchar(255)"`
	BookingLink string    `gorm:"column:booking_link"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Traveler is a registered user. Read-only here.
type Traveler struct {
	ID        string    `gorm:"column:traveler_id;primaryKey;type:char(26)"`
	Name      string    `gorm:"column:name;type:varchar(255)"`
	Phone     string    `gorm:"column:phone;type:varchar(50)"`
	Email     string    `gorm:"column:email;type:varchar(255)"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
