package model

// swagger:model User
type User struct {
	BaseModel
	Name     string `gorm:"size:100;not null" json:"name"`
	LastName string `gorm:"size:100" json:"last_name"`
	Email    string `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	Image    string `gorm:"size:255" json:"image"`
}

func (User) TableName() string {
	return "users"
}

// UserStatistics 用户作为活动组织者/参与者的统计数据
type UserStatistics struct {
	AverageScore              *float64 `json:"avg_score"`
	NumberOfComments          int64    `json:"num_comments"`
	PercentageCommentersBelow float64  `json:"percentage_commenters_below"`
}
