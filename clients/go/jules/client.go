// Package jules provides a Go client for the Jules chat server: the HTTP API
// plus a websocket session for real-time events.
package jules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a Jules API client. Call Login (or set AccessToken directly)
// before using authenticated endpoints.
type Client struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client
}

// NewClient creates a new client for the server at baseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// User is a chat participant.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Chat is a conversation summary.
type Chat struct {
	ID           int64  `json:"id"`
	Name         string `json:"name,omitempty"`
	IsGroup      bool   `json:"isGroup"`
	Participants []User `json:"participants"`
	Others       []User `json:"otherParticipants"`
}

// DisplayName derives the name shown for the chat: the stored name for
// groups, the other participant's username for direct chats.
func (c Chat) DisplayName() string {
	if c.IsGroup {
		return c.Name
	}
	if len(c.Others) > 0 {
		return c.Others[0].Username
	}
	return fmt.Sprintf("chat %d", c.ID)
}

// Message is a chat message.
type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chatId"`
	SenderID  int64     `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Sender    User      `json:"sender"`
}

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates an account and stores the access token on the client.
func (c *Client) Register(username, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do("POST", "/auth/register", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.AccessToken = resp.AccessToken
	return &resp, nil
}

// Login verifies credentials and stores the access token on the client.
func (c *Client) Login(username, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do("POST", "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.AccessToken = resp.AccessToken
	return &resp, nil
}

// CreateChat creates a direct or group chat with the given users.
func (c *Client) CreateChat(name string, otherUserIDs []int64) (*Chat, error) {
	var chat Chat
	err := c.do("POST", "/chats", map[string]any{
		"name":         name,
		"otherUserIds": otherUserIDs,
	}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChats returns the caller's chats, most recent first.
func (c *Client) ListChats() ([]Chat, error) {
	var chats []Chat
	if err := c.do("GET", "/chats", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// SearchChats finds the caller's chats matching term.
func (c *Client) SearchChats(term string) ([]Chat, error) {
	var chats []Chat
	path := "/chats/search?searchTerm=" + url.QueryEscape(term)
	if err := c.do("GET", path, nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// GetMessages returns a page of a chat's messages, oldest first.
func (c *Client) GetMessages(chatID int64, limit, offset int) ([]Message, error) {
	var messages []Message
	path := fmt.Sprintf("/chats/%d/messages?limit=%d&offset=%d", chatID, limit, offset)
	if err := c.do("GET", path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// PostMessage appends a message to a chat over HTTP.
func (c *Client) PostMessage(chatID int64, content string) (*Message, error) {
	var msg Message
	path := fmt.Sprintf("/chats/%d/messages", chatID)
	if err := c.do("POST", path, map[string]string{"content": content}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) do(method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Event is a server-to-client real-time event.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Session is a live websocket connection to the server.
type Session struct {
	conn *websocket.Conn
}

// Connect opens an authenticated websocket session.
func (c *Client) Connect() (*Session, error) {
	wsURL := strings.Replace(c.BaseURL, "http", "ws", 1) + "/ws"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.AccessToken)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		if resp != nil {
			var apiErr struct {
				Error string `json:"error"`
			}
			if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
				return nil, fmt.Errorf("handshake refused: %s", apiErr.Error)
			}
		}
		return nil, err
	}
	return &Session{conn: conn}, nil
}

// Close closes the session.
func (s *Session) Close() error {
	return s.conn.Close()
}

// JoinChat asks to join the chat's room.
func (s *Session) JoinChat(chatID int64) error {
	return s.emit("joinChat", map[string]int64{"chatId": chatID})
}

// LeaveChat leaves the chat's room.
func (s *Session) LeaveChat(chatID int64) error {
	return s.emit("leaveChat", map[string]int64{"chatId": chatID})
}

// SendMessage sends a message through the session.
func (s *Session) SendMessage(chatID int64, content string) error {
	return s.emit("sendMessage", map[string]any{"chatId": chatID, "content": content})
}

// Typing signals that the user started or stopped typing.
func (s *Session) Typing(chatID int64, isTyping bool) error {
	return s.emit("typing", map[string]any{"chatId": chatID, "isTyping": isTyping})
}

// Next blocks until the next server event arrives.
func (s *Session) Next() (*Event, error) {
	var evt Event
	if err := s.conn.ReadJSON(&evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

func (s *Session) emit(event string, data any) error {
	return s.conn.WriteJSON(map[string]any{"event": event, "data": data})
}
