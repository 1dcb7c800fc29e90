package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Daniels4624P/Jules/internal/api"
	"github.com/Daniels4624P/Jules/internal/chat"
	"github.com/Daniels4624P/Jules/internal/handlers"
	"github.com/Daniels4624P/Jules/internal/models"
	"github.com/Daniels4624P/Jules/internal/store"
	"github.com/Daniels4624P/Jules/internal/token"
)

type apiFixture struct {
	store  *store.SQLiteStore
	server *httptest.Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	st, err := store.NewSQLiteStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(st.Close)

	logger := zerolog.Nop()
	tokens := token.NewManager(token.Config{
		AccessSecret:  "api-test-access",
		RefreshSecret: "api-test-refresh",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	chats := chat.NewService(st, logger)
	h := handlers.NewHandler(st, nil, chats, tokens, logger, false)

	router := api.NewRouter(logger, api.Deps{
		Handler:  h,
		Verifier: tokens,
		Socket:   http.NotFoundHandler(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &apiFixture{store: st, server: server}
}

// request sends a JSON request and decodes the response body into out when
// non-nil. accessToken empty means unauthenticated.
func (f *apiFixture) request(t *testing.T, method, path, accessToken string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// signup registers a user and returns its id and access token.
func (f *apiFixture) signup(t *testing.T, username string) (int64, string) {
	t.Helper()
	var resp handlers.AuthResponse
	status := f.request(t, http.MethodPost, "/auth/register", "",
		handlers.RegisterRequest{Username: username, Password: "correct-horse"}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d", username, status)
	}
	return resp.User.ID, resp.AccessToken
}

func TestRegister(t *testing.T) {
	f := newAPIFixture(t)

	var resp handlers.AuthResponse
	status := f.request(t, http.MethodPost, "/auth/register", "",
		handlers.RegisterRequest{Username: "alice", Password: "correct-horse"}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if resp.User.Username != "alice" || resp.User.ID == 0 {
		t.Errorf("user = %+v", resp.User)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("token pair missing")
	}

	// The stored hash must not be the raw password.
	u, err := f.store.GetUserByUsername(context.Background(), "alice")
	if err != nil || u == nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.PasswordHash == "correct-horse" {
		t.Error("password stored in plain text")
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newAPIFixture(t)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "correct-horse"},
		{"bad characters", "alice!", "correct-horse"},
		{"short password", "alice", "short"},
	}
	for _, tc := range cases {
		status := f.request(t, http.MethodPost, "/auth/register", "",
			handlers.RegisterRequest{Username: tc.username, Password: tc.password}, nil)
		if status != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, status)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice")

	var errResp map[string]string
	status := f.request(t, http.MethodPost, "/auth/register", "",
		handlers.RegisterRequest{Username: "alice", Password: "correct-horse"}, &errResp)
	if status != http.StatusConflict {
		t.Errorf("status = %d, want 409", status)
	}
	if errResp["error"] != "username already taken" {
		t.Errorf("error = %q", errResp["error"])
	}
}

func TestLogin(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice")

	var resp handlers.AuthResponse
	status := f.request(t, http.MethodPost, "/auth/login", "",
		handlers.LoginRequest{Username: "alice", Password: "correct-horse"}, &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if resp.AccessToken == "" {
		t.Error("access token missing")
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice")

	// Wrong password and unknown user must be indistinguishable.
	var wrongPass, unknownUser map[string]string
	s1 := f.request(t, http.MethodPost, "/auth/login", "",
		handlers.LoginRequest{Username: "alice", Password: "wrong-password"}, &wrongPass)
	s2 := f.request(t, http.MethodPost, "/auth/login", "",
		handlers.LoginRequest{Username: "nobody", Password: "wrong-password"}, &unknownUser)

	if s1 != http.StatusUnauthorized || s2 != http.StatusUnauthorized {
		t.Errorf("statuses = %d, %d, want 401, 401", s1, s2)
	}
	if wrongPass["error"] != unknownUser["error"] {
		t.Errorf("bodies differ: %q vs %q", wrongPass["error"], unknownUser["error"])
	}
}

func TestRefresh(t *testing.T) {
	f := newAPIFixture(t)

	var reg handlers.AuthResponse
	f.request(t, http.MethodPost, "/auth/register", "",
		handlers.RegisterRequest{Username: "alice", Password: "correct-horse"}, &reg)

	var refreshed handlers.AuthResponse
	status := f.request(t, http.MethodPost, "/auth/refresh", "",
		handlers.RefreshRequest{RefreshToken: reg.RefreshToken}, &refreshed)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if refreshed.AccessToken == "" || refreshed.User.Username != "alice" {
		t.Errorf("refreshed = %+v", refreshed)
	}

	status = f.request(t, http.MethodPost, "/auth/refresh", "",
		handlers.RefreshRequest{RefreshToken: "garbage"}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("garbage refresh status = %d, want 401", status)
	}

	// An access token is not a refresh token.
	status = f.request(t, http.MethodPost, "/auth/refresh", "",
		handlers.RefreshRequest{RefreshToken: reg.AccessToken}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("access-as-refresh status = %d, want 401", status)
	}
}

func TestChatsRequireAuth(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/chats", "/chats/search", "/chats/1/messages"} {
		if status := f.request(t, http.MethodGet, path, "", nil, nil); status != http.StatusUnauthorized {
			t.Errorf("GET %s unauthenticated status = %d, want 401", path, status)
		}
	}
}

func TestCreateChatDirect(t *testing.T) {
	f := newAPIFixture(t)
	_, aliceTok := f.signup(t, "alice")
	bobID, _ := f.signup(t, "bob")

	var summary models.ChatSummary
	status := f.request(t, http.MethodPost, "/chats", aliceTok,
		handlers.CreateChatRequest{Name: "dropped", OtherUserIDs: []int64{bobID}}, &summary)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if summary.IsGroup || summary.Name != "" {
		t.Errorf("summary = %+v, want unnamed direct chat", summary)
	}
	if len(summary.Others) != 1 || summary.Others[0].Username != "bob" {
		t.Errorf("otherParticipants = %+v", summary.Others)
	}
}

func TestCreateChatGroup(t *testing.T) {
	f := newAPIFixture(t)
	_, aliceTok := f.signup(t, "alice")
	bobID, _ := f.signup(t, "bob")
	carolID, _ := f.signup(t, "carol")

	var summary models.ChatSummary
	status := f.request(t, http.MethodPost, "/chats", aliceTok,
		handlers.CreateChatRequest{Name: "weekend", OtherUserIDs: []int64{bobID, carolID}}, &summary)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if !summary.IsGroup || summary.Name != "weekend" {
		t.Errorf("summary = %+v, want group named weekend", summary)
	}
}

func TestCreateChatErrors(t *testing.T) {
	f := newAPIFixture(t)
	_, aliceTok := f.signup(t, "alice")

	status := f.request(t, http.MethodPost, "/chats", aliceTok,
		handlers.CreateChatRequest{OtherUserIDs: []int64{999}}, nil)
	if status != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", status)
	}

	status = f.request(t, http.MethodPost, "/chats", aliceTok,
		handlers.CreateChatRequest{OtherUserIDs: nil}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("solo chat status = %d, want 400", status)
	}
}

func TestListChats(t *testing.T) {
	f := newAPIFixture(t)
	_, aliceTok := f.signup(t, "alice")
	bobID, bobTok := f.signup(t, "bob")
	_, carolTok := f.signup(t, "carol")

	f.request(t, http.MethodPost, "/chats", aliceTok,
		handlers.CreateChatRequest{OtherUserIDs: []int64{bobID}}, nil)

	var aliceChats, carolChats []models.ChatSummary
	f.request(t, http.MethodGet, "/chats", aliceTok, nil, &aliceChats)
	f.request(t, http.MethodGet, "/chats", carolTok, nil, &carolChats)

	if len(aliceChats) != 1 {
		t.Errorf("alice sees %d chats, want 1", len(aliceChats))
	}
	if len(carolChats) != 0 {
		t.Errorf("carol sees %d chats, want 0", len(carolChats))
	}

	var bobChats []models.ChatSummary
	f.request(t, http.MethodGet, "/chats", bobTok, nil, &bobChats)
	if len(bobChats) != 1 || len(bobChats[0].Others) != 1 || bobChats[0].Others[0].Username != "alice" {
		t.Errorf("bob's chats = %+v", bobChats)
	}
}

func TestSearchChats(t *testing.T) {
	f := newAPIFixture(t)
	_, aliceTok := f.signup(t, "alice")
	bobID, _ := f.signup(t, "bob")
	carolID, _ := f.signup(t, "carol")

	f.request(t, http.MethodPost, "/chats", aliceTok,
		handlers.CreateChatRequest{Name: "Weekend Plans", OtherUserIDs: []int64{bobID, carolID}}, nil)

	var found []models.ChatSummary
	status := f.request(t, http.MethodGet, "/chats/search?searchTerm=weekend", aliceTok, nil, &found)
	if status != http.StatusOK || len(found) != 1 {
		t.Errorf("status = %d, found %d chats, want 200 and 1", status, len(found))
	}

	if status := f.request(t, http.MethodGet, "/chats/search", aliceTok, nil, nil); status != http.StatusBadRequest {
		t.Errorf("missing searchTerm status = %d, want 400", status)
	}
}

func TestMessagesRoundTrip(t *testing.T) {
	f := newAPIFixture(t)
	_, aliceTok := f.signup(t, "alice")
	bobID, bobTok := f.signup(t, "bob")

	var summary models.ChatSummary
	f.request(t, http.MethodPost, "/chats", aliceTok,
		handlers.CreateChatRequest{OtherUserIDs: []int64{bobID}}, &summary)
	path := fmt.Sprintf("/chats/%d/messages", summary.ID)

	var posted models.Message
	status := f.request(t, http.MethodPost, path, aliceTok,
		handlers.PostMessageRequest{Content: "hello bob"}, &posted)
	if status != http.StatusCreated {
		t.Fatalf("post status = %d, want 201", status)
	}
	if posted.Content != "hello bob" || posted.Sender.Username != "alice" {
		t.Errorf("posted = %+v", posted)
	}

	var page []models.Message
	status = f.request(t, http.MethodGet, path, bobTok, nil, &page)
	if status != http.StatusOK || len(page) != 1 {
		t.Fatalf("get status = %d, %d messages, want 200 and 1", status, len(page))
	}
	if page[0].ID != posted.ID {
		t.Errorf("page[0].ID = %d, want %d", page[0].ID, posted.ID)
	}
}

func TestMessagesAccessControl(t *testing.T) {
	f := newAPIFixture(t)
	_, aliceTok := f.signup(t, "alice")
	bobID, _ := f.signup(t, "bob")
	_, eveTok := f.signup(t, "eve")

	var summary models.ChatSummary
	f.request(t, http.MethodPost, "/chats", aliceTok,
		handlers.CreateChatRequest{OtherUserIDs: []int64{bobID}}, &summary)
	path := fmt.Sprintf("/chats/%d/messages", summary.ID)

	if status := f.request(t, http.MethodGet, path, eveTok, nil, nil); status != http.StatusForbidden {
		t.Errorf("non-participant read status = %d, want 403", status)
	}
	if status := f.request(t, http.MethodPost, path, eveTok,
		handlers.PostMessageRequest{Content: "hi"}, nil); status != http.StatusForbidden {
		t.Errorf("non-participant post status = %d, want 403", status)
	}
	if status := f.request(t, http.MethodGet, "/chats/999/messages", aliceTok, nil, nil); status != http.StatusNotFound {
		t.Errorf("missing chat status = %d, want 404", status)
	}
	if status := f.request(t, http.MethodGet, "/chats/abc/messages", aliceTok, nil, nil); status != http.StatusBadRequest {
		t.Errorf("bad chat id status = %d, want 400", status)
	}
}

func TestPostMessageValidation(t *testing.T) {
	f := newAPIFixture(t)
	_, aliceTok := f.signup(t, "alice")
	bobID, _ := f.signup(t, "bob")

	var summary models.ChatSummary
	f.request(t, http.MethodPost, "/chats", aliceTok,
		handlers.CreateChatRequest{OtherUserIDs: []int64{bobID}}, &summary)
	path := fmt.Sprintf("/chats/%d/messages", summary.ID)

	var errResp map[string]string
	status := f.request(t, http.MethodPost, path, aliceTok,
		handlers.PostMessageRequest{Content: "   "}, &errResp)
	if status != http.StatusBadRequest {
		t.Errorf("blank content status = %d, want 400", status)
	}
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	var resp handlers.HealthResponse
	status := f.request(t, http.MethodGet, "/health", "", nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if resp.Status != "healthy" || resp.Checks["database"].Status != "pass" {
		t.Errorf("health = %+v", resp)
	}
}

func TestRequireJSONContentType(t *testing.T) {
	f := newAPIFixture(t)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/auth/register",
		bytes.NewReader([]byte("username=alice")))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}
