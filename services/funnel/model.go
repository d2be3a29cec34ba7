package funnel

import (
	"time"
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Funnel is a multi-stage outbound message sequence. Funnels are authored
// elsewhere in the platform; this service only reads them.
type Funnel struct {
	ID        string        `gorm:"column:funnel_id;primaryKey;type:char(26)"`
	Name      string        `gorm:"column:name;type:varchar(255);not null"`
	Channel   Channel       `gorm:"column:channel;type:varchar(20);not null;default:'sms'"`
	Active    bool          `gorm:"column:active;default:true"`
	Stages    []FunnelStage `gorm:"foreignKey:FunnelID"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// FunnelStage is one message within a funnel. StageNo is 1-based and defines
// send order; SortOrder is the author-controlled ordering field, ties broken
// by StageNo.
type FunnelStage struct {
	ID        string    `gorm:"column:stage_id;primaryKey;type:char(26)"`
	FunnelID  string    `gorm:"column:funnel_id;index;not null"`
	StageNo   int       `gorm:"column:stage_no;not null"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
	DaysAfter int       `gorm:"column:days_after;not null;default:0"`
	SendTime  *string   `gorm:"column:send_time;type:varchar(5)"` // "HH:MM", tenant-local
	Body      string    `gorm:"column:body;type:text"`
	ImageURL  string    `gorm:"column:image_url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// GroupFunnel binds a funnel to a lead/user group. A group may bind any
// number of funnels per channel.
type GroupFunnel struct {
	GroupID   string    `gorm:"column:group_id;primaryKey"`
	FunnelID  string    `gorm:"column:funnel_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
