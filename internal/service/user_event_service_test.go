package service

import (
	"bytes"
	"context"
	"errors"
	"social_events_backend/internal/config"
	"social_events_backend/internal/model"
	"social_events_backend/internal/repository"
	"social_events_backend/internal/util"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func newAuthService(f *fixture) *AuthService {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour}}
	return NewAuthService(f.users.UserRepo, repository.NewTokenRepository(nil), cfg)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	auth := newAuthService(f)
	ctx := context.Background()

	user := &model.User{Name: "Ana", LastName: "<i>Lopez</i>", Email: "ana@example.com", Password: "password123"}
	if err := auth.Register(ctx, user); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Password == "password123" {
		t.Errorf("password was stored in clear text")
	}
	if user.LastName != "Lopez" {
		t.Errorf("last name was not sanitized: %q", user.LastName)
	}

	dup := &model.User{Name: "Other", Email: "ana@example.com", Password: "password123"}
	if err := auth.Register(ctx, dup); !errors.Is(err, util.ErrEmailRegistered) {
		t.Errorf("duplicate Register() error = %v", err)
	}

	short := &model.User{Name: "Short", Email: "short@example.com", Password: "1234"}
	if err := auth.Register(ctx, short); !errors.Is(err, util.ErrPasswordTooShort) {
		t.Errorf("short password error = %v", err)
	}

	token, err := auth.Login(ctx, "ana@example.com", "password123")
	if err != nil || token == "" {
		t.Fatalf("Login() = %q, %v", token, err)
	}
	claims, err := util.ParseJWT(token, "test-secret")
	if err != nil || claims.UserID != user.ID {
		t.Errorf("token claims = %+v, %v", claims, err)
	}

	if _, err := auth.Login(ctx, "ana@example.com", "wrong-password"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := auth.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v", err)
	}

	if err := auth.Logout(ctx, claims); err != nil {
		t.Errorf("Logout() without redis error = %v", err)
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, 1, "ana")
	f.user(t, 2, "bob")

	updated, err := f.users.UpdateProfile(ctx, 1, UserUpdate{Name: strPtr("Anita"), Password: strPtr("new-password")})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Name != "Anita" || updated.Email != "ana@example.com" || updated.Password == "new-password" {
		t.Errorf("updated user = %+v", updated)
	}

	if _, err := f.users.UpdateProfile(ctx, 1, UserUpdate{Email: strPtr("bob@example.com")}); !errors.Is(err, util.ErrEmailRegistered) {
		t.Errorf("taken email error = %v", err)
	}
	if _, err := f.users.UpdateProfile(ctx, 1, UserUpdate{Password: strPtr("short")}); !errors.Is(err, util.ErrPasswordTooShort) {
		t.Errorf("short password error = %v", err)
	}
	if _, err := f.users.UpdateProfile(ctx, 42, UserUpdate{}); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("missing user error = %v", err)
	}

	found, err := f.users.SearchUsers(ctx, "BOB")
	if err != nil || len(found) != 1 || found[0].ID != 2 {
		t.Errorf("SearchUsers() = %v, %v", found, err)
	}
}

func TestUserService_DeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	f.user(t, 1, "ana")
	f.user(t, 2, "bob")
	f.event(t, 100, 1, now.Add(time.Hour), now.Add(2*time.Hour))
	f.assistances.CreateAssistance(ctx, 2, 100)
	f.friends.CreateFriendRequest(ctx, 2, 1)

	claims := &util.Claims{UserID: 1}
	if err := f.users.DeleteUser(ctx, claims); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if err := f.users.DeleteUser(ctx, claims); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("second DeleteUser() error = %v", err)
	}

	for name, m := range map[string]interface{}{"events": &model.Event{}, "assistances": &model.Assistance{}, "friends": &model.Friendship{}} {
		if n := f.countRows(t, m); n != 0 {
			t.Errorf("%s left after cascade = %d", name, n)
		}
	}
}

func TestEventService_CreateAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	f.user(t, 1, "ana")
	f.user(t, 2, "bob")

	bad := &model.Event{OwnerID: 1, Name: "x", EventStartDate: now.Add(2 * time.Hour), EventEndDate: now.Add(time.Hour)}
	if err := f.events.CreateEvent(ctx, bad); !errors.Is(err, util.ErrInvalidEventDates) {
		t.Errorf("inverted dates error = %v", err)
	}

	event := &model.Event{
		OwnerID:        1,
		Name:           "Concert <script>x</script>",
		Location:       "Madrid",
		EventStartDate: now.Add(time.Hour),
		EventEndDate:   now.Add(3 * time.Hour),
	}
	if err := f.events.CreateEvent(ctx, event); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if event.Name != "Concert" {
		t.Errorf("name not sanitized: %q", event.Name)
	}

	if _, err := f.events.UpdateEvent(ctx, 2, event.ID, EventUpdate{Name: strPtr("hijack")}); !errors.Is(err, util.ErrNotEventOwner) {
		t.Errorf("non-owner update error = %v", err)
	}

	late := now.Add(4 * time.Hour)
	if _, err := f.events.UpdateEvent(ctx, 1, event.ID, EventUpdate{EventStartDate: &late}); !errors.Is(err, util.ErrInvalidEventDates) {
		t.Errorf("start after end error = %v", err)
	}

	updated, err := f.events.UpdateEvent(ctx, 1, event.ID, EventUpdate{Location: strPtr("Sevilla")})
	if err != nil || updated.Location != "Sevilla" || updated.Name != "Concert" {
		t.Errorf("UpdateEvent() = %+v, %v", updated, err)
	}

	if _, err := f.events.Search(ctx, model.EventFilter{Date: "15/10/2026"}); !errors.Is(err, util.ErrInvalidDate) {
		t.Errorf("bad date filter error = %v", err)
	}

	if _, err := f.events.ListByOwner(ctx, 9, repository.EventScopeAll, now); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("ListByOwner(missing) error = %v", err)
	}

	if err := f.events.DeleteEvent(ctx, 2, event.ID); !errors.Is(err, util.ErrNotEventOwner) {
		t.Errorf("non-owner delete error = %v", err)
	}
	if err := f.events.DeleteEvent(ctx, 1, event.ID); err != nil {
		t.Errorf("DeleteEvent() error = %v", err)
	}
	if _, err := f.events.GetEvent(ctx, event.ID); !errors.Is(err, util.ErrEventNotFound) {
		t.Errorf("GetEvent() after delete error = %v", err)
	}
}

func TestMessageService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	f.user(t, 1, "ana")
	f.user(t, 2, "bob")

	if _, err := f.messages.SendMessage(ctx, 1, 1, "me", now); !errors.Is(err, util.ErrSelfMessage) {
		t.Errorf("self message error = %v", err)
	}
	if _, err := f.messages.SendMessage(ctx, 1, 9, "hi", now); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("missing receiver error = %v", err)
	}
	if _, err := f.messages.SendMessage(ctx, 1, 2, "<p></p>", now); !errors.Is(err, util.ErrEmptyMessage) {
		t.Errorf("empty message error = %v", err)
	}

	msg, err := f.messages.SendMessage(ctx, 1, 2, "hello", now)
	if err != nil || msg.ID == 0 {
		t.Fatalf("SendMessage() = %+v, %v", msg, err)
	}
	f.messages.SendMessage(ctx, 2, 1, "hey", now.Add(time.Second))

	conv, err := f.messages.GetConversation(ctx, 2, 1)
	if err != nil || len(conv) != 2 || conv[0].Content != "hello" {
		t.Errorf("GetConversation() = %+v, %v", conv, err)
	}

	contacts, err := f.messages.GetContacts(ctx, 2)
	if err != nil || len(contacts) != 1 || contacts[0].ID != 1 {
		t.Errorf("GetContacts() = %v, %v", contacts, err)
	}
}

func TestExportService_WriteEventAssistancesXLSX(t *testing.T) {
	event := &model.Event{Name: "Picnic", Location: "Retiro", EventStartDate: time.Now(), EventEndDate: time.Now().Add(time.Hour)}
	assistants := []model.Assistant{
		{ID: 1, Name: "Ana", LastName: "Lopez", Email: "ana@example.com", Punctuation: intPtr(9), Comment: strPtr("sunny")},
		{ID: 2, Name: "Bob", LastName: "Diaz", Email: "bob@example.com"},
	}

	var buf bytes.Buffer
	if err := NewExportService().WriteEventAssistancesXLSX(&buf, event, assistants); err != nil {
		t.Fatalf("WriteEventAssistancesXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(assistancesSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}
	if rows[0][0] != "Picnic" || rows[2][0] != "ID" || rows[3][3] != "ana@example.com" || rows[3][4] != "9" {
		t.Errorf("unexpected sheet content %v", rows)
	}
}
