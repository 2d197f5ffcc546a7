package enum

import "fmt"

// UserStatus represents the trust classification of a commenter.
type UserStatus int

const (
	// UserStatusInitial indicates a user whose comments need moderation.
	UserStatusInitial UserStatus = iota
	// UserStatusTrusted indicates a user whose comments are shown without moderation.
	UserStatusTrusted
	// UserStatusBlocked indicates a user whose comments are hidden from everyone else.
	UserStatusBlocked
	// UserStatusAdministrator indicates a user who may moderate comments.
	UserStatusAdministrator
)

var userStatusNames = map[UserStatus]string{
	UserStatusInitial:       "initial",
	UserStatusTrusted:       "trusted",
	UserStatusBlocked:       "blocked",
	UserStatusAdministrator: "administrator",
}

// String returns the lower case name of the status.
func (s UserStatus) String() string {
	if name, ok := userStatusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("UserStatus(%d)", int(s))
}

// IsTrusted reports whether comments by this user skip the moderation queue.
func (s UserStatus) IsTrusted() bool {
	return s == UserStatusTrusted || s == UserStatusAdministrator
}
