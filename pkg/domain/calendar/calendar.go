// Package calendar holds users connected to Google Calendar and Gmail.
package calendar

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type User struct {
	ID          uuid.UUID
	Email       string
	GoogleToken json.RawMessage
	UpdatedAt   time.Time
}

// Token decodes the stored OAuth2 token. A nil token means the user is not connected.
func (u *User) Token() (*oauth2.Token, error) {
	if len(u.GoogleToken) == 0 || string(u.GoogleToken) == "null" {
		return nil, nil
	}
	var tok oauth2.Token
	if err := json.Unmarshal(u.GoogleToken, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// EncodeToken serialises tok for storage.
func EncodeToken(tok *oauth2.Token) (json.RawMessage, error) {
	if tok == nil {
		return nil, nil
	}
	return json.Marshal(tok)
}
