package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"social_events_backend/internal/config"
	"social_events_backend/internal/model"
	"social_events_backend/pkg/database/dbtest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t   *testing.T
	app *App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:     config.ServerConfig{Mode: gin.TestMode},
		JWT:        config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Storage:    config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		RateLimit:  config.RateLimitConfig{MaxRequests: 10000, WindowMinutes: 1},
		Friendship: config.FriendshipConfig{CascadeDeleteMessages: true},
		Data:       config.DataConfig{CascadeOnDelete: true},
		Upload:     config.UploadConfig{MaxImageMB: 1},
	}

	return &testServer{t: t, app: New(cfg, dbtest.New(t), nil)}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var resp apiResponse
	if bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func (s *testServer) expect(method, path, token string, body interface{}, status int) apiResponse {
	s.t.Helper()
	w, resp := s.do(method, path, token, body)
	if w.Code != status {
		s.t.Fatalf("%s %s: status = %d, want %d, body = %s", method, path, w.Code, status, w.Body.String())
	}
	return resp
}

// signup 注册并登录，返回用户 ID 和令牌
func (s *testServer) signup(name string) (uint, string) {
	s.t.Helper()
	resp := s.expect(http.MethodPost, "/api/register", "", gin.H{
		"name":      name,
		"last_name": "Test",
		"email":     name + "@example.com",
		"password":  "password123",
	}, http.StatusCreated)

	var created struct {
		ID uint `json:"id"`
	}
	json.Unmarshal(resp.Data, &created)

	resp = s.expect(http.MethodPost, "/api/login", "", gin.H{
		"email":    name + "@example.com",
		"password": "password123",
	}, http.StatusOK)

	var login struct {
		Token string `json:"token"`
	}
	json.Unmarshal(resp.Data, &login)
	if created.ID == 0 || login.Token == "" {
		s.t.Fatalf("signup %s failed: id=%d token=%q", name, created.ID, login.Token)
	}
	return created.ID, login.Token
}

func (s *testServer) createEvent(token string, start, end time.Time) uint {
	s.t.Helper()
	resp := s.expect(http.MethodPost, "/api/events", token, gin.H{
		"name":            "Concierto",
		"location":        "Barcelona",
		"description":     "Música en directo",
		"eventStart_date": start.Format(time.RFC3339),
		"eventEnd_date":   end.Format(time.RFC3339),
		"n_participators": 50,
		"type":            "music",
	}, http.StatusCreated)

	var created struct {
		ID uint `json:"id"`
	}
	json.Unmarshal(resp.Data, &created)
	return created.ID
}

func outcomeOf(t *testing.T, resp apiResponse) string {
	t.Helper()
	var o struct {
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal(resp.Data, &o); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	return o.Outcome
}

func TestHealthAndAuthRequired(t *testing.T) {
	s := newTestServer(t)

	s.expect(http.MethodGet, "/api/health", "", nil, http.StatusOK)
	s.expect(http.MethodGet, "/api/users", "", nil, http.StatusUnauthorized)
	s.expect(http.MethodGet, "/api/users", "not-a-jwt", nil, http.StatusUnauthorized)

	w, _ := s.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("/metrics status = %d", w.Code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signup("ana")

	// 重复邮箱
	s.expect(http.MethodPost, "/api/register", "", gin.H{
		"name": "Ana", "last_name": "Bis", "email": "ana@example.com", "password": "password123",
	}, http.StatusConflict)

	// 密码过短
	s.expect(http.MethodPost, "/api/register", "", gin.H{
		"name": "Bo", "last_name": "X", "email": "bo@example.com", "password": "short",
	}, http.StatusBadRequest)

	s.expect(http.MethodPost, "/api/login", "", gin.H{
		"email": "ana@example.com", "password": "wrong-password",
	}, http.StatusUnauthorized)

	s.expect(http.MethodGet, "/api/users", token, nil, http.StatusOK)
	s.expect(http.MethodPost, "/api/logout", token, nil, http.StatusOK)
}

func TestFriendshipRoutes(t *testing.T) {
	s := newTestServer(t)
	anaID, ana := s.signup("ana")
	boID, bo := s.signup("bo")

	tests := []struct {
		name    string
		method  string
		path    string
		token   string
		status  int
		outcome string
	}{
		{"self request", http.MethodPost, fmt.Sprintf("/api/friends/%d", anaID), ana, http.StatusBadRequest, "CANNOT_SELF_REQUEST"},
		{"send", http.MethodPost, fmt.Sprintf("/api/friends/%d", boID), ana, http.StatusOK, "SENT"},
		{"send again", http.MethodPost, fmt.Sprintf("/api/friends/%d", boID), ana, http.StatusOK, "ALREADY_SENT"},
		{"accept own", http.MethodPut, fmt.Sprintf("/api/friends/%d", boID), ana, http.StatusBadRequest, "CANNOT_SELF_ACCEPT"},
		{"accept", http.MethodPut, fmt.Sprintf("/api/friends/%d", anaID), bo, http.StatusOK, "ACCEPTED"},
		{"accept again", http.MethodPut, fmt.Sprintf("/api/friends/%d", anaID), bo, http.StatusOK, "ALREADY_FRIENDS"},
		{"delete", http.MethodDelete, fmt.Sprintf("/api/friends/%d", anaID), bo, http.StatusOK, "DELETED"},
		{"delete missing", http.MethodDelete, fmt.Sprintf("/api/friends/%d", anaID), bo, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		resp := s.expect(tt.method, tt.path, tt.token, nil, tt.status)
		if got := outcomeOf(t, resp); got != tt.outcome {
			t.Errorf("%s: outcome = %s, want %s", tt.name, got, tt.outcome)
		}
	}

	s.expect(http.MethodPost, "/api/friends/9999", ana, nil, http.StatusNotFound)
	s.expect(http.MethodPost, "/api/friends/abc", ana, nil, http.StatusBadRequest)
}

func TestFriendRequestListsAndReciprocalAccept(t *testing.T) {
	s := newTestServer(t)
	anaID, ana := s.signup("ana")
	boID, bo := s.signup("bo")

	s.expect(http.MethodPost, fmt.Sprintf("/api/friends/%d", boID), ana, nil, http.StatusOK)

	resp := s.expect(http.MethodGet, "/api/friends/requests", bo, nil, http.StatusOK)
	var requesters []model.User
	json.Unmarshal(resp.Data, &requesters)
	if len(requesters) != 1 || requesters[0].ID != anaID {
		t.Fatalf("requests = %+v", requesters)
	}

	// 对方已申请时回申请直接成为好友
	resp = s.expect(http.MethodPost, fmt.Sprintf("/api/friends/%d", anaID), bo, nil, http.StatusOK)
	if got := outcomeOf(t, resp); got != "ACCEPTED" {
		t.Fatalf("reciprocal outcome = %s", got)
	}

	resp = s.expect(http.MethodGet, fmt.Sprintf("/api/users/%d/friends", anaID), bo, nil, http.StatusOK)
	var friends []model.User
	json.Unmarshal(resp.Data, &friends)
	if len(friends) != 1 || friends[0].ID != boID {
		t.Errorf("friends of ana = %+v", friends)
	}
}

func TestEventAndAssistanceRoutes(t *testing.T) {
	s := newTestServer(t)
	ownerID, owner := s.signup("ana")
	guestID, guest := s.signup("bo")

	now := time.Now()
	past := s.createEvent(owner, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	future := s.createEvent(owner, now.Add(24*time.Hour), now.Add(48*time.Hour))

	// 开始时间晚于结束时间
	s.expect(http.MethodPost, "/api/events", owner, gin.H{
		"name": "X", "location": "Y", "description": "Z", "type": "t", "n_participators": 1,
		"eventStart_date": now.Add(2 * time.Hour).Format(time.RFC3339),
		"eventEnd_date":   now.Add(time.Hour).Format(time.RFC3339),
	}, http.StatusBadRequest)

	resp := s.expect(http.MethodGet, "/api/events", guest, nil, http.StatusOK)
	var upcoming []model.Event
	json.Unmarshal(resp.Data, &upcoming)
	if len(upcoming) != 1 || upcoming[0].ID != future {
		t.Errorf("upcoming = %+v", upcoming)
	}

	resp = s.expect(http.MethodPost, fmt.Sprintf("/api/assistances/%d", past), guest, nil, http.StatusOK)
	if got := outcomeOf(t, resp); got != "JOINED" {
		t.Errorf("join outcome = %s", got)
	}
	resp = s.expect(http.MethodPost, fmt.Sprintf("/api/assistances/%d", past), guest, nil, http.StatusOK)
	if got := outcomeOf(t, resp); got != "ALREADY_JOINED" {
		t.Errorf("join again outcome = %s", got)
	}
	s.expect(http.MethodPost, "/api/assistances/9999", guest, nil, http.StatusNotFound)

	s.expect(http.MethodPut, fmt.Sprintf("/api/assistances/%d", past), guest, gin.H{"punctuation": 11}, http.StatusBadRequest)
	s.expect(http.MethodPut, fmt.Sprintf("/api/assistances/%d", past), guest, gin.H{"punctuation": 8, "comment": "Genial"}, http.StatusOK)

	s.expect(http.MethodPost, fmt.Sprintf("/api/assistances/%d", future), guest, nil, http.StatusOK)
	s.expect(http.MethodPut, fmt.Sprintf("/api/assistances/%d", future), guest, gin.H{"punctuation": 5}, http.StatusBadRequest)

	resp = s.expect(http.MethodGet, fmt.Sprintf("/api/assistances/%d/%d", guestID, past), guest, nil, http.StatusOK)
	var a model.Assistance
	json.Unmarshal(resp.Data, &a)
	if a.Punctuation == nil || *a.Punctuation != 8 {
		t.Errorf("assistance = %+v", a)
	}

	resp = s.expect(http.MethodGet, fmt.Sprintf("/api/users/%d/statistics", ownerID), guest, nil, http.StatusOK)
	var stats model.UserStatistics
	json.Unmarshal(resp.Data, &stats)
	if stats.AverageScore == nil || *stats.AverageScore != 8 {
		t.Errorf("owner stats = %+v", stats)
	}

	resp = s.expect(http.MethodGet, fmt.Sprintf("/api/users/%d/assistances/finished", guestID), owner, nil, http.StatusOK)
	var attended []model.EventWithAssistance
	json.Unmarshal(resp.Data, &attended)
	if len(attended) != 1 || attended[0].ID != past {
		t.Errorf("finished assistances = %+v", attended)
	}

	// 非组织者不能移除参与者
	s.expect(http.MethodDelete, fmt.Sprintf("/api/assistances/%d/%d", guestID, future), guest, nil, http.StatusForbidden)
	s.expect(http.MethodDelete, fmt.Sprintf("/api/assistances/%d/%d", guestID, future), owner, nil, http.StatusOK)
	s.expect(http.MethodGet, fmt.Sprintf("/api/events/%d/assistances/%d", future, guestID), owner, nil, http.StatusNotFound)

	s.expect(http.MethodDelete, fmt.Sprintf("/api/events/%d/assistances", past), guest, nil, http.StatusOK)
	s.expect(http.MethodGet, fmt.Sprintf("/api/assistances/%d/%d", guestID, past), guest, nil, http.StatusNotFound)

	s.expect(http.MethodPut, fmt.Sprintf("/api/events/%d", future), guest, gin.H{"name": "Hack"}, http.StatusForbidden)
	resp = s.expect(http.MethodPut, fmt.Sprintf("/api/events/%d", future), owner, gin.H{"name": "Concierto 2"}, http.StatusOK)
	var updated model.Event
	json.Unmarshal(resp.Data, &updated)
	if updated.Name != "Concierto 2" || updated.Location != "Barcelona" {
		t.Errorf("updated = %+v", updated)
	}

	s.expect(http.MethodGet, "/api/events/search?date=2024-13-40", guest, nil, http.StatusBadRequest)
	s.expect(http.MethodDelete, fmt.Sprintf("/api/events/%d", future), owner, nil, http.StatusOK)
	s.expect(http.MethodGet, fmt.Sprintf("/api/events/%d", future), owner, nil, http.StatusNotFound)
}

func TestExportAssistances(t *testing.T) {
	s := newTestServer(t)
	_, owner := s.signup("ana")
	_, guest := s.signup("bo")

	now := time.Now()
	eventID := s.createEvent(owner, now.Add(time.Hour), now.Add(2*time.Hour))
	s.expect(http.MethodPost, fmt.Sprintf("/api/assistances/%d", eventID), guest, nil, http.StatusOK)

	s.expect(http.MethodGet, fmt.Sprintf("/api/events/%d/assistances/export", eventID), guest, nil, http.StatusForbidden)

	w, _ := s.do(http.MethodGet, fmt.Sprintf("/api/events/%d/assistances/export", eventID), owner, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Content-Type = %q", ct)
	}
	// xlsx 是 zip 包
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Errorf("export body is not a zip archive")
	}
}

func TestMessageRoutes(t *testing.T) {
	s := newTestServer(t)
	anaID, ana := s.signup("ana")
	boID, bo := s.signup("bo")

	s.expect(http.MethodPost, "/api/messages", ana, gin.H{"content": "hola", "user_id_received": anaID}, http.StatusBadRequest)
	s.expect(http.MethodPost, "/api/messages", ana, gin.H{"content": "hola", "user_id_received": 9999}, http.StatusNotFound)
	s.expect(http.MethodPost, "/api/messages", ana, gin.H{"content": "hola", "user_id_received": boID}, http.StatusCreated)
	s.expect(http.MethodPost, "/api/messages", bo, gin.H{"content": "qué tal", "user_id_received": anaID}, http.StatusCreated)

	resp := s.expect(http.MethodGet, fmt.Sprintf("/api/messages/%d", anaID), bo, nil, http.StatusOK)
	var conversation []model.Message
	json.Unmarshal(resp.Data, &conversation)
	if len(conversation) != 2 || conversation[0].Content != "hola" {
		t.Errorf("conversation = %+v", conversation)
	}

	resp = s.expect(http.MethodGet, "/api/messages/users", bo, nil, http.StatusOK)
	var contacts []model.User
	json.Unmarshal(resp.Data, &contacts)
	if len(contacts) != 1 || contacts[0].ID != anaID {
		t.Errorf("contacts = %+v", contacts)
	}
}

func TestUserProfileRoutes(t *testing.T) {
	s := newTestServer(t)
	anaID, ana := s.signup("ana")
	s.signup("bo")

	resp := s.expect(http.MethodPut, "/api/users", ana, gin.H{"last_name": "García"}, http.StatusOK)
	var u model.User
	json.Unmarshal(resp.Data, &u)
	if u.LastName != "García" || u.Name != "ana" {
		t.Errorf("updated user = %+v", u)
	}

	s.expect(http.MethodPut, "/api/users", ana, gin.H{"email": "bo@example.com"}, http.StatusConflict)

	resp = s.expect(http.MethodGet, "/api/users/search?s=garc", ana, nil, http.StatusOK)
	var found []model.User
	json.Unmarshal(resp.Data, &found)
	if len(found) != 1 || found[0].ID != anaID {
		t.Errorf("search = %+v", found)
	}

	s.expect(http.MethodDelete, "/api/users", ana, nil, http.StatusOK)
	// 用户删除后原令牌失效
	s.expect(http.MethodGet, fmt.Sprintf("/api/users/%d", anaID), ana, nil, http.StatusUnauthorized)
}

func TestUploadUserImage(t *testing.T) {
	s := newTestServer(t)
	_, ana := s.signup("ana")

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatal(err)
	}

	upload := func(filename string, content []byte) (*httptest.ResponseRecorder, apiResponse) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, _ := mw.CreateFormFile("image", filename)
		part.Write(content)
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/users/image", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+ana)
		return s.serve(req)
	}

	w, resp := upload("avatar.png", pngBuf.Bytes())
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	var out struct {
		Image string `json:"image"`
	}
	json.Unmarshal(resp.Data, &out)
	if out.Image == "" {
		t.Errorf("image url missing")
	}

	if w, _ := upload("notes.png", []byte("just some text")); w.Code != http.StatusBadRequest {
		t.Errorf("text disguised as png: status = %d", w.Code)
	}
	if w, _ := upload("script.exe", pngBuf.Bytes()); w.Code != http.StatusBadRequest {
		t.Errorf("bad extension: status = %d", w.Code)
	}
}

func TestConfigReloadTogglesMessageCascade(t *testing.T) {
	s := newTestServer(t)
	if !s.app.services.friendship.CascadeDeleteMessages() {
		t.Fatalf("cascade should start enabled")
	}

	s.app.applyConfig(&config.Config{Friendship: config.FriendshipConfig{CascadeDeleteMessages: false}})
	if s.app.services.friendship.CascadeDeleteMessages() {
		t.Errorf("cascade should be disabled after reload")
	}
}
