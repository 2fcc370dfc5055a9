package model

import (
	"gorm.io/gorm"
)

type FriendshipStatus int

const (
	FriendshipPending  FriendshipStatus = 0
	FriendshipAccepted FriendshipStatus = 1
)

func (s FriendshipStatus) String() string {
	switch s {
	case FriendshipPending:
		return "pending"
	case FriendshipAccepted:
		return "accepted"
	default:
		return "unknown"
	}
}

// Friendship 好友申请与好友关系共用一行。
// UserID 为申请人，FriendID 为被申请人；接受后方向保留不变。
// PairLow/PairHigh 是无序对的规范形式，唯一索引保证一对用户最多一行。
type Friendship struct {
	UserID   uint             `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	FriendID uint             `gorm:"primaryKey;autoIncrement:false;column:user_id_friend;index" json:"user_id_friend"`
	Status   FriendshipStatus `gorm:"not null;default:0;index" json:"status"`
	PairLow  uint             `gorm:"not null;uniqueIndex:idx_friends_pair" json:"-"`
	PairHigh uint             `gorm:"not null;uniqueIndex:idx_friends_pair" json:"-"`
}

func (Friendship) TableName() string {
	return "friends"
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	f.EnsureCanonicalPair()
	return nil
}

// EnsureCanonicalPair 填充 PairLow/PairHigh
func (f *Friendship) EnsureCanonicalPair() {
	f.PairLow, f.PairHigh = CanonicalPair(f.UserID, f.FriendID)
}

// RequestedBy 该行是否由 userID 发起
func (f *Friendship) RequestedBy(userID uint) bool {
	return f.UserID == userID
}

func CanonicalPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// FriendRequestOutcome 好友操作的业务结果（不是错误）
type FriendRequestOutcome struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

var (
	FriendNotFound = FriendRequestOutcome{
		Outcome: "NOT_FOUND",
		Message: "Friend request or friendship not found",
		Status:  "not_found",
	}
	FriendCannotSelfAccept = FriendRequestOutcome{
		Outcome: "CANNOT_SELF_ACCEPT",
		Message: "You cannot accept your own friend request",
		Status:  "cannot_self_accept",
	}
	FriendCannotSelfRequest = FriendRequestOutcome{
		Outcome: "CANNOT_SELF_REQUEST",
		Message: "You cannot request to be your own friend",
		Status:  "cannot_self_request",
	}
	FriendRequestSent = FriendRequestOutcome{
		Outcome: "SENT",
		Message: "Friend request sent successfully to external user",
		Status:  "pending",
	}
	FriendRequestAlreadySent = FriendRequestOutcome{
		Outcome: "ALREADY_SENT",
		Message: "Friend request was already sent to external user",
		Status:  "pending",
	}
	FriendRequestAccepted = FriendRequestOutcome{
		Outcome: "ACCEPTED",
		Message: "Friend request received from external user has been accepted",
		Status:  "accepted",
	}
	FriendAlreadyFriends = FriendRequestOutcome{
		Outcome: "ALREADY_FRIENDS",
		Message: "External user is already your friend",
		Status:  "accepted",
	}
	FriendDeleted = FriendRequestOutcome{
		Outcome: "DELETED",
		Message: "Friend request received from external user has been rejected or mutual friendship has been deleted",
		Status:  "deleted",
	}
)
