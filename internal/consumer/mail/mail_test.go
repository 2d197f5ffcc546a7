package mail_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/robalyx/my2cents/internal/consumer/mail"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/events"
	"github.com/robalyx/my2cents/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var errRelay = errors.New("relay refused")

type captureSender struct {
	mu   sync.Mutex
	err  error
	sent []*gomail.Msg
}

func (s *captureSender) Send(_ context.Context, msg *gomail.Msg) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, msg)

	return s.err
}

func pageURL(slug string) string {
	return "https://blog.example.com/" + slug + ".html"
}

func sampleComment() *types.Comment {
	return &types.Comment{
		ID:   42,
		Slug: "hello-world",
		Body: "Nice post!",
		User: &types.User{ID: 7, Name: "jdoe", DisplayName: "Jane Doe"},
	}
}

func mailConfig(protocol config.MailProtocol) *config.Mail {
	return &config.Mail{
		Protocol: protocol,
		From:     "blog@example.com",
		To:       "admin@example.com",
	}
}

func TestComposeBuildsPlainTextNotification(t *testing.T) {
	t.Parallel()

	n := mail.Compose(sampleComment(), "blog@example.com", "admin@example.com", pageURL("hello-world"))

	assert.Equal(t, "Jane Doe", n.FromName)
	assert.Equal(t, mail.AdminName, n.ToName)
	assert.Equal(t, "New comment on your post hello-world", n.Subject)
	assert.Equal(t, "New comment on your post https://blog.example.com/hello-world.html\r\n"+
		"\r\n"+
		"Author: Jane Doe\r\n"+
		"\r\n"+
		"Nice post!\r\n"+
		"\r\n"+
		"You can see all comments on this post here:\r\n"+
		"https://blog.example.com/hello-world.html#comments\r\n"+
		"\r\n"+
		"Permalink: https://blog.example.com/hello-world.html#comment-42", n.Body)
}

func TestComposeFallsBackToName(t *testing.T) {
	t.Parallel()

	c := sampleComment()
	c.User.DisplayName = ""

	n := mail.Compose(c, "blog@example.com", "admin@example.com", pageURL(c.Slug))
	assert.Equal(t, "jdoe", n.FromName)
	assert.Contains(t, n.Body, "Author: jdoe")
}

func TestBuildSetsHeaders(t *testing.T) {
	t.Parallel()

	msg, err := mail.Build(mail.Compose(sampleComment(), "blog@example.com", "admin@example.com", pageURL("hello-world")))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	from := msg.GetFrom()
	require.Len(t, from, 1)
	assert.Equal(t, "Jane Doe", from[0].Name)
	assert.Equal(t, "blog@example.com", from[0].Address)

	to := msg.GetTo()
	require.Len(t, to, 1)
	assert.Equal(t, "My2Cents Admin", to[0].Name)
	assert.Equal(t, "admin@example.com", to[0].Address)

	raw := buf.String()
	assert.Contains(t, raw, "Subject: New comment on your post hello-world")
	assert.Contains(t, raw, "Author: Jane Doe")
}

func TestBuildRejectsInvalidAddress(t *testing.T) {
	t.Parallel()

	_, err := mail.Build(mail.Compose(sampleComment(), "not an address", "admin@example.com", pageURL("x")))
	require.Error(t, err)
}

func TestNoMailRegistersNothing(t *testing.T) {
	t.Parallel()

	bg := events.NewBackground(zap.NewNop())
	consumer := mail.New(mailConfig(config.MailProtocolNoMail), &captureSender{}, pageURL, bg, zap.NewNop())

	assert.Empty(t, consumer.RegisterConsumers())

	consumer = mail.New(mailConfig(config.MailProtocolSMTP), nil, pageURL, bg, zap.NewNop())
	assert.Empty(t, consumer.RegisterConsumers())
}

func TestCommentPostedSendsMail(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	bg := events.NewBackground(zap.NewNop())
	bus := events.NewBus(zap.NewNop())

	consumer := mail.New(mailConfig(config.MailProtocolSendmail), sender, pageURL, bg, zap.NewNop())
	assert.Equal(t, 1, bus.RegisterConsumer(consumer))

	bus.Publish(t.Context(), events.CommentPosted(sampleComment()))
	bg.Wait()

	require.Len(t, sender.sent, 1)

	var buf bytes.Buffer
	_, err := sender.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Permalink: https://blog.example.com/hello-world.html#comment-42")
}

func TestDeliveryFailureIsLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	logger := zap.New(core)

	bg := events.NewBackground(logger)
	bus := events.NewBus(logger)
	bus.RegisterConsumer(mail.New(
		mailConfig(config.MailProtocolSMTP), &captureSender{err: errRelay}, pageURL, bg, logger,
	))

	bus.Publish(t.Context(), events.CommentPosted(sampleComment()))
	bg.Wait()

	entries := logs.FilterMessage("Background task failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "mail.send", entries[0].ContextMap()["task"])
}

func TestNewSenderSelectsTransport(t *testing.T) {
	t.Parallel()

	sender, err := mail.NewSender(&config.Mail{Protocol: config.MailProtocolSendmail, Sendmail: config.Sendmail{Path: "/usr/sbin/sendmail"}})
	require.NoError(t, err)
	assert.IsType(t, &mail.SendmailSender{}, sender)

	sender, err = mail.NewSender(&config.Mail{Protocol: config.MailProtocolSMTP, SMTP: config.SMTP{
		Host: "smtp.example.com", Port: 587, User: "user", Password: "secret",
	}})
	require.NoError(t, err)
	assert.IsType(t, &mail.SMTPSender{}, sender)

	sender, err = mail.NewSender(&config.Mail{Protocol: config.MailProtocolNoMail})
	require.NoError(t, err)
	assert.Nil(t, sender)

	_, err = mail.NewSender(&config.Mail{Protocol: "pigeon"})
	require.ErrorIs(t, err, mail.ErrUnsupportedProtocol)
}
