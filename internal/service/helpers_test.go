package service

import (
	"social_events_backend/internal/model"
	"social_events_backend/internal/repository"
	"social_events_backend/pkg/database/dbtest"
	"testing"
	"time"

	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	users       *UserService
	events      *EventService
	friends     *FriendshipService
	assistances *AssistanceService
	messages    *MessageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(nil)
	users := NewUserService(userRepo, tokenRepo, true)
	events := NewEventService(repository.NewEventRepository(db), users, true)

	return &fixture{
		db:          db,
		users:       users,
		events:      events,
		friends:     NewFriendshipService(repository.NewFriendshipRepository(db), users, true),
		assistances: NewAssistanceService(repository.NewAssistanceRepository(db), events, users),
		messages:    NewMessageService(repository.NewMessageRepository(db), users),
	}
}

func (f *fixture) user(t *testing.T, id uint, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, LastName: "Test", Email: name + "@example.com", Password: "hash"}
	u.ID = id
	if err := f.db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (f *fixture) event(t *testing.T, id, ownerID uint, start, end time.Time) *model.Event {
	t.Helper()
	e := &model.Event{OwnerID: ownerID, Name: "Event", Location: "Madrid", EventStartDate: start, EventEndDate: end}
	e.ID = id
	if err := f.db.Create(e).Error; err != nil {
		t.Fatalf("create event %d: %v", id, err)
	}
	return e
}

func (f *fixture) countRows(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
