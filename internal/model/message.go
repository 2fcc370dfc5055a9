package model

import "time"

// Message 私信，创建后不可修改
type Message struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	SenderID   uint      `gorm:"column:user_id_send;index:idx_messages_pair;not null" json:"user_id_send"`
	ReceiverID uint      `gorm:"column:user_id_received;index:idx_messages_pair;not null" json:"user_id_received"`
	Timestamp  time.Time `gorm:"index;not null" json:"timestamp"`
}

func (Message) TableName() string {
	return "messages"
}
