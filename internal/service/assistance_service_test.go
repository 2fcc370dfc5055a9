package service

import (
	"context"
	"errors"
	"social_events_backend/internal/model"
	"social_events_backend/internal/repository"
	"social_events_backend/internal/util"
	"testing"
	"time"
)

func TestAssistanceScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	f.user(t, 1, "ana")
	f.user(t, 2, "bob")
	f.event(t, 100, 2, now.Add(-48*time.Hour), now.Add(-24*time.Hour))

	got, err := f.assistances.CreateAssistance(ctx, 1, 100)
	if err != nil || got != model.AssistanceJoined {
		t.Fatalf("join = %+v, %v", got, err)
	}

	got, err = f.assistances.EditAssistance(ctx, &model.Assistance{
		UserID:      1,
		EventID:     100,
		Punctuation: intPtr(8),
		Comment:     strPtr("fun"),
	})
	if err != nil || got != model.AssistanceRated {
		t.Fatalf("edit = %+v, %v", got, err)
	}

	a, err := f.assistances.GetAssistanceOfUserForEvent(ctx, 1, 100)
	if err != nil || a == nil {
		t.Fatalf("lookup = %v, %v", a, err)
	}
	if a.Punctuation == nil || *a.Punctuation != 8 || a.Comment == nil || *a.Comment != "fun" {
		t.Errorf("row after rating = %+v", a)
	}

	got, err = f.assistances.CreateAssistance(ctx, 1, 100)
	if err != nil || got != model.AssistanceAlreadyJoined {
		t.Fatalf("second join = %+v, %v", got, err)
	}
	if n := f.countRows(t, &model.Assistance{}); n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestRateAssistance(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name    string
		end     time.Time
		join    bool
		eventID uint
		rating  model.AssistanceRating
		wantErr error
	}{
		{
			name:    "finished event",
			end:     now.Add(-time.Hour),
			join:    true,
			eventID: 100,
			rating:  model.AssistanceRating{Punctuation: intPtr(8), Comment: strPtr("fun")},
		},
		{
			name:    "not finished",
			end:     now.Add(time.Hour),
			join:    true,
			eventID: 100,
			rating:  model.AssistanceRating{Punctuation: intPtr(8)},
			wantErr: util.ErrEventNotFinished,
		},
		{
			name:    "ends exactly now",
			end:     now,
			join:    true,
			eventID: 100,
			rating:  model.AssistanceRating{Punctuation: intPtr(8)},
			wantErr: util.ErrEventNotFinished,
		},
		{
			name:    "punctuation out of range",
			end:     now.Add(-time.Hour),
			join:    true,
			eventID: 100,
			rating:  model.AssistanceRating{Punctuation: intPtr(11)},
			wantErr: util.ErrInvalidPunctuation,
		},
		{
			name:    "not joined",
			end:     now.Add(-time.Hour),
			eventID: 100,
			rating:  model.AssistanceRating{Punctuation: intPtr(5)},
			wantErr: util.ErrAssistanceNotFound,
		},
		{
			name:    "unknown event",
			end:     now.Add(-time.Hour),
			join:    true,
			eventID: 404,
			rating:  model.AssistanceRating{Punctuation: intPtr(5)},
			wantErr: util.ErrEventNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.user(t, 1, "ana")
			f.event(t, 100, 1, tt.end.Add(-2*time.Hour), tt.end)
			if tt.join {
				f.assistances.CreateAssistance(ctx, 1, 100)
			}

			got, err := f.assistances.RateAssistance(ctx, 1, tt.eventID, tt.rating, now)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RateAssistance() error = %v, want %v", err, tt.wantErr)
			}

			a, _ := f.assistances.GetAssistanceOfUserForEvent(ctx, 1, 100)
			if tt.wantErr != nil {
				// 被拒绝时不能修改已有记录
				if a != nil && (a.Punctuation != nil || a.Comment != nil) {
					t.Errorf("rejected rating mutated row: %+v", a)
				}
				return
			}
			if got != model.AssistanceRated || *a.Punctuation != *tt.rating.Punctuation {
				t.Errorf("RateAssistance() = %+v, row = %+v", got, a)
			}
		})
	}
}

func TestRateAssistance_PartialUpdateKeepsFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	f.user(t, 1, "ana")
	f.event(t, 100, 1, now.Add(-3*time.Hour), now.Add(-time.Hour))
	f.assistances.CreateAssistance(ctx, 1, 100)

	f.assistances.RateAssistance(ctx, 1, 100, model.AssistanceRating{Punctuation: intPtr(6), Comment: strPtr("<b>ok</b>")}, now)
	if _, err := f.assistances.RateAssistance(ctx, 1, 100, model.AssistanceRating{Punctuation: intPtr(9)}, now); err != nil {
		t.Fatalf("second rating error = %v", err)
	}

	a, _ := f.assistances.GetAssistanceOfUserForEvent(ctx, 1, 100)
	if *a.Punctuation != 9 || *a.Comment != "ok" {
		t.Errorf("row = punctuation %d comment %q", *a.Punctuation, *a.Comment)
	}
}

func TestDeleteAssistance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	f.user(t, 1, "ana")
	f.user(t, 2, "bob")
	f.user(t, 3, "cid")
	f.event(t, 100, 2, now.Add(time.Hour), now.Add(2*time.Hour))

	f.assistances.CreateAssistance(ctx, 1, 100)
	f.assistances.CreateAssistance(ctx, 3, 100)

	a, _ := f.assistances.GetAssistanceOfUserForEvent(ctx, 1, 100)
	got, err := f.assistances.DeleteAssistance(ctx, a)
	if err != nil || got != model.AssistanceLeft {
		t.Fatalf("DeleteAssistance() = %+v, %v", got, err)
	}
	a, err = f.assistances.GetAssistanceOfUserForEvent(ctx, 1, 100)
	if err != nil || a != nil {
		t.Errorf("lookup after delete = %v, %v", a, err)
	}

	if _, err := f.assistances.LeaveEvent(ctx, 1, 100); !errors.Is(err, util.ErrAssistanceNotFound) {
		t.Errorf("LeaveEvent() twice error = %v", err)
	}

	if _, err := f.assistances.RemoveAssistant(ctx, 1, 3, 100); !errors.Is(err, util.ErrNotEventOwner) {
		t.Errorf("RemoveAssistant() by non-owner error = %v", err)
	}
	got, err = f.assistances.RemoveAssistant(ctx, 2, 3, 100)
	if err != nil || got != model.AssistanceLeft {
		t.Errorf("RemoveAssistant() by owner = %+v, %v", got, err)
	}
}

func TestUserStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	owner := f.user(t, 1, "owner")
	f.user(t, 2, "u2")
	f.user(t, 3, "u3")
	f.user(t, 4, "u4")

	f.event(t, 10, owner.ID, now.Add(-72*time.Hour), now.Add(-48*time.Hour))
	f.event(t, 11, owner.ID, now.Add(-30*time.Hour), now.Add(-24*time.Hour))
	f.event(t, 12, 2, now.Add(time.Hour), now.Add(2*time.Hour))

	f.db.Create(&[]model.Assistance{
		{UserID: 2, EventID: 10, Punctuation: intPtr(7), Comment: strPtr("a")},
		{UserID: 2, EventID: 11, Punctuation: intPtr(8), Comment: strPtr("b")},
		{UserID: 3, EventID: 10, Punctuation: intPtr(10), Comment: strPtr("c")},
		{UserID: 4, EventID: 11},
	})

	stats, err := f.assistances.GetUserStatistics(ctx, owner.ID, now)
	if err != nil {
		t.Fatalf("GetUserStatistics() error = %v", err)
	}
	if stats.AverageScore == nil || *stats.AverageScore != 8.33 {
		t.Errorf("average = %v, want 8.33", stats.AverageScore)
	}
	if stats.NumberOfComments != 0 || stats.PercentageCommentersBelow != 0 {
		t.Errorf("owner stats = %+v", stats)
	}

	tests := []struct {
		userID   uint
		comments int64
		below    float64
	}{
		{2, 2, 75},
		{3, 1, 50},
		{4, 0, 0},
	}
	for _, tt := range tests {
		stats, err := f.assistances.GetUserStatistics(ctx, tt.userID, now)
		if err != nil {
			t.Fatalf("GetUserStatistics(%d) error = %v", tt.userID, err)
		}
		if stats.NumberOfComments != tt.comments || stats.PercentageCommentersBelow != tt.below {
			t.Errorf("user %d: comments %d below %v, want %d and %v",
				tt.userID, stats.NumberOfComments, stats.PercentageCommentersBelow, tt.comments, tt.below)
		}
		if stats.AverageScore != nil && tt.userID != 2 {
			t.Errorf("user %d has no rated events, got average %v", tt.userID, *stats.AverageScore)
		}
	}

	if _, err := f.assistances.GetUserStatistics(ctx, 99, now); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("missing user error = %v", err)
	}
}

func TestGetUserAssistances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	f.user(t, 1, "ana")
	f.event(t, 10, 1, now.Add(-3*time.Hour), now.Add(-2*time.Hour))
	f.event(t, 11, 1, now.Add(2*time.Hour), now.Add(3*time.Hour))
	f.assistances.CreateAssistance(ctx, 1, 10)
	f.assistances.CreateAssistance(ctx, 1, 11)

	scopes := map[repository.EventScope]int{
		repository.EventScopeAll:      2,
		repository.EventScopeFuture:   1,
		repository.EventScopeFinished: 1,
	}
	for scope, want := range scopes {
		events, err := f.assistances.GetUserAssistances(ctx, 1, scope, now)
		if err != nil || len(events) != want {
			t.Errorf("GetUserAssistances(%s) = %d, %v; want %d", scope, len(events), err, want)
		}
	}

	assistants, err := f.assistances.GetEventAssistances(ctx, 10)
	if err != nil || len(assistants) != 1 || assistants[0].Email != "ana@example.com" {
		t.Errorf("GetEventAssistances() = %+v, %v", assistants, err)
	}
	if _, err := f.assistances.GetUserEventAssistance(ctx, 10, 1); err != nil {
		t.Errorf("GetUserEventAssistance() error = %v", err)
	}
}
