package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Severity classifies a config validation issue.
type Severity int

const (
	// SeverityWarning marks a setting that disables a feature but is otherwise valid.
	SeverityWarning Severity = iota
	// SeverityError marks a setting that breaks a single notification channel.
	SeverityError
	// SeverityFatal marks a setting the service cannot start without.
	SeverityFatal
)

// String returns the lower case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Issue describes one problem found in the configuration.
type Issue struct {
	Severity Severity
	Key      string
	Message  string
}

// String formats the issue for terminal output.
func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Key, i.Message)
}

// Issues is the result of a validation run.
type Issues []Issue

// HasErrors reports whether any issue is an error or fatal.
func (is Issues) HasErrors() bool {
	for _, issue := range is {
		if issue.Severity >= SeverityError {
			return true
		}
	}

	return false
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// IsValidWebHookURL reports whether value is an absolute http or https URL.
func IsValidWebHookURL(value string) bool {
	if value == "" {
		return false
	}

	return validate.Var(value, "http_url") == nil
}

// Validate checks the configuration and returns every issue found.
func Validate(cfg *Config) Issues {
	var issues Issues

	// Tag based checks on the sections the service cannot run without
	sections := []struct {
		name  string
		value any
	}{
		{"server", &cfg.Server},
		{"debug", &cfg.Debug},
		{"postgresql", &cfg.PostgreSQL},
		{"redis", &cfg.Redis},
		{"auth", &cfg.Auth},
		{"ratelimit", &cfg.RateLimit},
	}
	for _, section := range sections {
		issues = append(issues, structIssues(section.name, section.value)...)
	}

	issues = append(issues, validateMail(&cfg.Mail)...)
	issues = append(issues, validateNotification(&cfg.Notification)...)

	return issues
}

// structIssues converts validator errors into fatal issues.
func structIssues(section string, value any) Issues {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Issues{{Severity: SeverityFatal, Key: section, Message: err.Error()}}
	}

	issues := make(Issues, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{
			Severity: SeverityFatal,
			Key:      section + "." + strings.ToLower(fe.Field()),
			Message:  fmt.Sprintf("failed on '%s' check", fe.Tag()),
		})
	}

	return issues
}

func validateMail(mail *Mail) Issues {
	var issues Issues

	if mail.Protocol == MailProtocolNoMail {
		return nil
	}

	if validate.Var(mail.From, "required,email") != nil {
		issues = append(issues, Issue{SeverityFatal, "mail.from", "must be a valid address"})
	}

	if validate.Var(mail.To, "required,email") != nil {
		issues = append(issues, Issue{SeverityFatal, "mail.to", "must be a valid address"})
	}

	switch mail.Protocol {
	case MailProtocolSMTP:
		if mail.SMTP.Host == "" {
			issues = append(issues, Issue{SeverityFatal, "mail.smtp.host", "is mandatory"})
		}

		if mail.SMTP.Port <= 0 {
			issues = append(issues, Issue{SeverityFatal, "mail.smtp.port", "is mandatory"})
		}

		if mail.SMTP.User == "" {
			issues = append(issues, Issue{SeverityFatal, "mail.smtp.user", "is mandatory"})
		}

		if mail.SMTP.Password == "" {
			issues = append(issues, Issue{SeverityFatal, "mail.smtp.password", "is mandatory"})
		}
	case MailProtocolSendmail:
		if mail.Sendmail.Path == "" {
			issues = append(issues, Issue{SeverityFatal, "mail.sendmail.path", "is mandatory"})
		} else if _, err := os.Stat(mail.Sendmail.Path); err != nil {
			issues = append(issues, Issue{
				SeverityError, "mail.sendmail.path",
				fmt.Sprintf("file '%s' does not exist. No mails will be sent", mail.Sendmail.Path),
			})
		}
	default:
		issues = append(issues, Issue{
			SeverityError, "mail.protocol",
			fmt.Sprintf("invalid value '%s'. No mails will be sent", mail.Protocol),
		})
	}

	return issues
}

func validateNotification(n *Notification) Issues {
	var issues Issues

	if n.Interval <= 0 {
		issues = append(issues, Issue{
			SeverityWarning, "notification.interval",
			"is less than or equal to zero. No notifications will be pushed",
		})
	}

	if (n.Pushover.AppToken != "") != (n.Pushover.UserKey != "") {
		issues = append(issues, Issue{
			SeverityError, "notification.pushover",
			"app_token and user_key must both be set",
		})
	}

	if (n.WebPush.PublicKey != "") != (n.WebPush.PrivateKey != "") {
		issues = append(issues, Issue{
			SeverityError, "notification.webpush",
			"public_key and private_key must both be set",
		})
	}

	if n.Slack.WebHookURL != "" && !IsValidWebHookURL(n.Slack.WebHookURL) {
		issues = append(issues, Issue{
			SeverityError, "notification.slack.webhook_url",
			"is not a valid http(s) URL. No slack messages will be sent",
		})
	}

	return issues
}
