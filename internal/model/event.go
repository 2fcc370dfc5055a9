package model

import "time"

// swagger:model Event
type Event struct {
	BaseModel
	OwnerID        uint      `gorm:"index;not null" json:"owner_id"`
	Name           string    `gorm:"size:150;not null" json:"name"`
	Image          string    `gorm:"size:255" json:"image"`
	Location       string    `gorm:"size:255" json:"location"`
	Description    string    `gorm:"type:text" json:"description"`
	EventStartDate time.Time `gorm:"index;not null" json:"eventStart_date"`
	EventEndDate   time.Time `gorm:"index;not null" json:"eventEnd_date"`
	NParticipators int       `gorm:"default:0" json:"n_participators"`
	Type           string    `gorm:"size:50" json:"type"`
	Date           time.Time `gorm:"autoCreateTime" json:"date"`
}

func (Event) TableName() string {
	return "events"
}

// HasFinished 活动结束时间早于 now
func (e *Event) HasFinished(now time.Time) bool {
	return e.EventEndDate.Before(now)
}

// HasStarted 活动开始时间早于 now
func (e *Event) HasStarted(now time.Time) bool {
	return e.EventStartDate.Before(now)
}

// EventWithAssistance 用户参与的活动及其评价
type EventWithAssistance struct {
	Event
	Punctuation *int    `json:"punctuation"`
	Comment     *string `json:"comment"`
}

// EventFilter 活动搜索条件，空字段不参与过滤
type EventFilter struct {
	Keyword  string
	Location string
	Date     string // YYYY-MM-DD, 匹配开始日期
}
