package types

import (
	"errors"
	"time"

	"github.com/robalyx/my2cents/internal/database/types/enum"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidUserID = errors.New("invalid user ID")
)

// User represents a commenter identified by an OAuth provider.
type User struct {
	ID          int64           `bun:",pk,autoincrement"                           json:"id"`
	Name        string          `bun:",notnull"                                    json:"name"`
	DisplayName string          `bun:",notnull,default:''"                         json:"displayName"`
	URL         string          `bun:"url,notnull,default:''"                      json:"url"`
	Provider    string          `bun:",notnull,unique:provider_identity"           json:"provider"`
	ProviderID  string          `bun:",notnull,unique:provider_identity"           json:"providerId"`
	Status      enum.UserStatus `bun:",notnull,default:0"                          json:"status"`
	CreatedAt   time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Label returns the display name, falling back to the account name.
func (u *User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}

	return u.Name
}

// ProfileURL returns the user's homepage, falling back to the provider profile.
func (u *User) ProfileURL() string {
	if u.URL != "" {
		return u.URL
	}

	switch u.Provider {
	case "twitter":
		return "https://twitter.com/" + u.Name
	case "github":
		return "https://github.com/" + u.Name
	}

	return ""
}
