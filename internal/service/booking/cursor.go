package booking

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
)

// pageToken is the decoded form of the opaque list cursor handed to clients.
type pageToken struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

func encodeCursor(c domain.PageCursor) string {
	data, _ := json.Marshal(pageToken{CreatedAt: c.CreatedAt, ID: c.ID})
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(s string) (*domain.PageCursor, error) {
	invalid := &domain.ValidationError{Field: "cursor", Message: "malformed cursor"}

	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, invalid
	}
	var token pageToken
	if err := json.Unmarshal(data, &token); err != nil || token.ID == "" || token.CreatedAt.IsZero() {
		return nil, invalid
	}
	return &domain.PageCursor{CreatedAt: token.CreatedAt, ID: token.ID}, nil
}
