package types

import (
	"errors"
	"time"
)

// ErrInvalidSubscription is returned when a push subscription misses a field.
var ErrInvalidSubscription = errors.New("invalid push subscription")

// Subscription is a browser push registration.
type Subscription struct {
	Endpoint  string    `bun:",pk"                                          json:"endpoint"`
	P256dh    string    `bun:"p256dh,notnull"                               json:"publicKey"`
	Auth      string    `bun:",notnull"                                     json:"auth"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Validate checks that every field needed for delivery is present.
func (s *Subscription) Validate() error {
	if s.Endpoint == "" || s.P256dh == "" || s.Auth == "" {
		return ErrInvalidSubscription
	}

	return nil
}
