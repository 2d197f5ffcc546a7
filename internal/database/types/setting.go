package types

import "errors"

// ErrSettingNotFound is returned when no setting exists for a key.
var ErrSettingNotFound = errors.New("setting not found")

const (
	// SettingKeyNotification gates the periodic moderation reminders.
	SettingKeyNotification = "notification"
	// SettingKeyPush gates browser push for the administrator widget.
	SettingKeyPush = "push"
)

// DefaultSettingKeys lists the keys seeded on migration.
var DefaultSettingKeys = []string{SettingKeyNotification, SettingKeyPush}

// Setting stores a JSON encoded channel setting by name.
type Setting struct {
	Name  string `bun:",pk"      json:"name"`
	Value string `bun:",notnull" json:"setting"`
}

// ChannelSetting is the decoded payload of a channel setting.
type ChannelSetting struct {
	Active bool `json:"active"`
}
