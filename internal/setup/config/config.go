package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v1.0.0"

// CurrentVersion is the current version of the config file.
const CurrentVersion = 1

// ConfigFileName is the name of the config file searched for in every config path.
const ConfigFileName = "my2cents.toml"

// MailProtocol selects how notification mails are delivered.
type MailProtocol string

const (
	MailProtocolSMTP     MailProtocol = "smtp"
	MailProtocolSendmail MailProtocol = "sendmail"
	MailProtocolNoMail   MailProtocol = "nomail"
)

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version      int          `koanf:"version"`
	Server       Server       `koanf:"server"`
	Debug        Debug        `koanf:"debug"`
	PostgreSQL   PostgreSQL   `koanf:"postgresql"`
	Redis        Redis        `koanf:"redis"`
	Auth         Auth         `koanf:"auth"`
	RateLimit    RateLimit    `koanf:"ratelimit"`
	Mail         Mail         `koanf:"mail"`
	Notification Notification `koanf:"notification"`
}

// Server describes where the service and the commented pages live.
type Server struct {
	// Address the REST server listens on.
	Host string `koanf:"host"`
	// Port the REST server listens on.
	ListenPort int `koanf:"listen_port"`
	// Public protocol (http or https).
	Protocol string `koanf:"protocol" validate:"oneof=http https"`
	// Public hostname of the blog and of the service.
	Hostname string `koanf:"hostname" validate:"required,hostname_rfc1123"`
	// Public port, 0 when the default port of the protocol is used.
	Port int `koanf:"port"`
	// Path of the service below the hostname.
	PathToMy2Cents string `koanf:"path_to_my2cents"`
	// Path of the pages below the hostname, the slug is appended to it.
	PathToPage string `koanf:"path_to_page"`
	// Suffix appended to the slug of a page (without dot).
	PageSuffix string `koanf:"page_suffix"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host" validate:"required"`
	// Database port.
	Port int `koanf:"port" validate:"required"`
	// Database username.
	User string `koanf:"user" validate:"required"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name" validate:"required"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host" validate:"required"`
	// Redis port.
	Port int `koanf:"port" validate:"required"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Auth contains the bearer token configuration of the REST API.
type Auth struct {
	// Secret used to verify HS256 tokens.
	JWTSecret string `koanf:"jwt_secret" validate:"required,min=16"`
	// Issuer expected in tokens, empty to skip the check.
	Issuer string `koanf:"issuer"`
}

// RateLimit limits how often one address may post comments.
type RateLimit struct {
	// Comments allowed per window, 0 or less disables the limit.
	Comments int `koanf:"comments"`
	// Window length in seconds.
	Window int `koanf:"window" validate:"gte=0"`
}

// WindowDuration returns the rate limit window.
func (r *RateLimit) WindowDuration() time.Duration {
	return time.Duration(r.Window) * time.Second
}

// Mail contains the notification mail configuration.
type Mail struct {
	// Delivery protocol: smtp, sendmail or nomail.
	Protocol MailProtocol `koanf:"protocol"`
	// Sender address.
	From string `koanf:"from"`
	// Recipient address.
	To       string   `koanf:"to"`
	SMTP     SMTP     `koanf:"smtp"`
	Sendmail Sendmail `koanf:"sendmail"`
}

// SMTP contains SMTP server configuration.
type SMTP struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	// Use implicit TLS instead of STARTTLS.
	Secure bool `koanf:"secure"`
}

// Sendmail contains the local sendmail binary configuration.
type Sendmail struct {
	// Path to the sendmail compatible binary.
	Path string `koanf:"path"`
}

// Notification contains the push, pushover and slack configuration.
type Notification struct {
	// Interval between reminder rounds in milliseconds, 0 or less disables reminders.
	Interval int      `koanf:"interval"`
	Pushover Pushover `koanf:"pushover"`
	Slack    Slack    `koanf:"slack"`
	WebPush  WebPush  `koanf:"webpush"`
}

// Pushover contains Pushover API credentials.
type Pushover struct {
	AppToken string `koanf:"app_token"`
	UserKey  string `koanf:"user_key"`
}

// Slack contains the incoming webhook configuration.
type Slack struct {
	WebHookURL string `koanf:"webhook_url"`
}

// WebPush contains the VAPID key pair used for browser push.
type WebPush struct {
	PublicKey  string `koanf:"public_key"`
	PrivateKey string `koanf:"private_key"`
}

// ReminderInterval returns the interval between reminder rounds.
func (n *Notification) ReminderInterval() time.Duration {
	return time.Duration(n.Interval) * time.Millisecond
}

// Enabled reports whether Pushover credentials are complete.
func (p *Pushover) Enabled() bool {
	return p.AppToken != "" && p.UserKey != ""
}

// Enabled reports whether a VAPID key pair is configured.
func (w *WebPush) Enabled() bool {
	return w.PublicKey != "" && w.PrivateKey != ""
}

// PageURL returns the public URL of the page identified by slug.
func (s *Server) PageURL(slug string) string {
	var b strings.Builder

	b.WriteString(s.Protocol)
	b.WriteString("://")
	b.WriteString(s.Hostname)

	if s.Port != 0 {
		b.WriteString(":" + strconv.Itoa(s.Port))
	}

	b.WriteString(s.PathToPage)
	b.WriteString(slug)

	if s.PageSuffix != "" {
		b.WriteString("." + s.PageSuffix)
	}

	return b.String()
}

// My2CentsURL returns the public URL of the service itself.
func (s *Server) My2CentsURL() string {
	host := s.Protocol + "://" + s.Hostname
	if s.Port != 0 {
		host += ":" + strconv.Itoa(s.Port)
	}

	return host + "/" + strings.TrimPrefix(s.PathToMy2Cents, "/")
}

// ListenAddr returns the address the REST server binds to.
func (s *Server) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.ListenPort)
}

// LoadConfig loads the configuration from the first config path that contains a config file.
// An explicit path takes precedence over the search paths.
func LoadConfig(explicitPath string) (*Config, string, error) {
	k := koanf.New(".")

	// Defaults mirror the documented example config
	setDefaults(k)

	var usedConfigPath string

	if explicitPath != "" {
		if err := k.Load(file.Provider(explicitPath), toml.Parser()); err != nil {
			return nil, "", fmt.Errorf("failed to load config %s: %w", explicitPath, err)
		}

		usedConfigPath = explicitPath
	} else {
		// Get user's home directory
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get home directory: %w", err)
		}

		// List search paths
		configPaths := []string{
			".my2cents",
			homeDir + "/.my2cents/config",
			"/etc/my2cents/config",
			"/app/config",
			"config",
			".",
		}

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s", path, ConfigFileName)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				usedConfigPath = configPath
				break
			}
		}

		if usedConfigPath == "" {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, ConfigFileName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(config.Version, CurrentVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// setDefaults seeds values that may be omitted from the config file.
func setDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"server.host":               "0.0.0.0",
		"server.listen_port":        3000,
		"server.protocol":           "https",
		"server.path_to_my2cents":   "/my2cents",
		"server.path_to_page":       "/",
		"debug.log_level":           "info",
		"debug.max_logs_to_keep":    10,
		"debug.max_log_lines":       100000,
		"postgresql.max_open_conns": 10,
		"postgresql.max_idle_conns": 5,
		"postgresql.max_lifetime":   30,
		"postgresql.max_idle_time":  5,
		"ratelimit.comments":        5,
		"ratelimit.window":          60,
		"mail.protocol":             string(MailProtocolNoMail),
		"mail.smtp.port":            587,
		"notification.interval":     60000,
	}

	for key, value := range defaults {
		_ = k.Set(key, value)
	}
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s", ErrConfigVersionMissing, ConfigFileName)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/my2cents/tree/%s/config/%s",
			ErrConfigVersionMismatch,
			ConfigFileName,
			current,
			expected,
			RepositoryVersion,
			ConfigFileName,
		)
	}

	return nil
}
