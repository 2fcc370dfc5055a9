package model

const (
	PunctuationMin = 0
	PunctuationMax = 10
)

// Assistance 用户参加活动的记录，活动结束后可以评分和评论
type Assistance struct {
	UserID      uint    `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	EventID     uint    `gorm:"primaryKey;autoIncrement:false;index" json:"event_id"`
	Comment     *string `gorm:"type:text" json:"comment"`
	Punctuation *int    `json:"punctuation"`
}

func (Assistance) TableName() string {
	return "assistances"
}

// AssistanceRating 评分请求，nil 字段保持原值
type AssistanceRating struct {
	Punctuation *int    `json:"punctuation"`
	Comment     *string `json:"comment"`
}

// Apply 把非空字段合并到 a
func (r AssistanceRating) Apply(a *Assistance) {
	if r.Punctuation != nil {
		p := *r.Punctuation
		a.Punctuation = &p
	}
	if r.Comment != nil && *r.Comment != "" {
		c := *r.Comment
		a.Comment = &c
	}
}

func ValidPunctuation(p int) bool {
	return p >= PunctuationMin && p <= PunctuationMax
}

// Assistant 活动参与者及其评价
type Assistant struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	Punctuation *int    `json:"punctuation"`
	Comment     *string `json:"comment"`
}

type AssistanceOutcome struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

var (
	AssistanceJoined = AssistanceOutcome{
		Outcome: "JOINED",
		Message: "Assistance created",
	}
	AssistanceAlreadyJoined = AssistanceOutcome{
		Outcome: "ALREADY_JOINED",
		Message: "Assistance already exists",
	}
	AssistanceLeft = AssistanceOutcome{
		Outcome: "LEFT",
		Message: "Assistance deleted",
	}
	AssistanceRated = AssistanceOutcome{
		Outcome: "RATED",
		Message: "Assistance rated",
	}
)
