// Package telegram adapts the Telegram Bot API to the engine: updates become domain events,
// and contract.Platform calls become API requests.
package telegram

import (
	"context"
	"fmt"
	"gatekeeper/contract"
	"gatekeeper/domain"
	"gatekeeper/domain/event"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"
)

const (
	uniqueFill   = "fill"
	uniqueFinish = "finish"
)

var allowedUpdates = []string{"message", "callback_query", "chat_member"}

type Settings struct {
	Token       string
	PollTimeout time.Duration
	// URL overrides the API endpoint, empty means api.telegram.org.
	URL string
	// Offline skips the getMe call, Synchronous runs handlers inline.
	Offline     bool
	Synchronous bool
}

type Bot struct {
	bot *tele.Bot
	log *slog.Logger
	now func() time.Time
}

var _ contract.Platform = (*Bot)(nil)

func NewBot(settings Settings, log *slog.Logger) (*Bot, error) {
	b, err := tele.NewBot(tele.Settings{
		URL:   settings.URL,
		Token: settings.Token,
		Poller: &tele.LongPoller{
			Timeout:        settings.PollTimeout,
			AllowedUpdates: allowedUpdates,
		},
		Offline:     settings.Offline,
		Synchronous: settings.Synchronous,
		OnError: func(err error, c tele.Context) {
			log.Error("Telegram handler failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Bot{bot: b, log: log, now: time.Now}, nil
}

// Register routes every supported update to the dispatcher.
func (b *Bot) Register(dispatcher contract.Dispatcher) {
	dispatch := func(evt event.Event) error {
		dispatcher.Dispatch(evt)
		return nil
	}

	b.bot.Handle(tele.OnChatMember, func(c tele.Context) error {
		evt, ok := memberUpdated(c.ChatMember(), b.now())
		if !ok {
			return nil
		}
		return dispatch(evt)
	})
	b.bot.Handle(tele.OnContact, func(c tele.Context) error {
		evt, ok := contactShared(c.Message(), b.now())
		if !ok {
			return nil
		}
		return dispatch(evt)
	})
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		evt, ok := messageReceived(c.Message(), b.now())
		if !ok {
			return nil
		}
		return dispatch(evt)
	})
	b.bot.Handle("/start", func(c tele.Context) error {
		if c.Sender() == nil {
			return nil
		}
		return dispatch(event.StartRequested{Sender: member(c.Sender())})
	})
	for _, name := range []event.CommandName{event.CommandStats, event.CommandBan, event.CommandLogs} {
		b.bot.Handle("/"+string(name), func(c tele.Context) error {
			evt, ok := commandIssued(name, c.Message())
			if !ok {
				return nil
			}
			return dispatch(evt)
		})
	}
	b.bot.Handle(&tele.Btn{Unique: uniqueFill}, func(c tele.Context) error {
		defer b.respond(c)
		evt, ok := fieldSelected(c.Sender(), c.Callback().Data)
		if !ok {
			b.log.Warn("Unknown field in callback", "data", c.Callback().Data)
			return nil
		}
		return dispatch(evt)
	})
	b.bot.Handle(&tele.Btn{Unique: uniqueFinish}, func(c tele.Context) error {
		defer b.respond(c)
		if c.Sender() == nil {
			return nil
		}
		return dispatch(event.FinishRequested{Sender: member(c.Sender()), At: b.now()})
	})
}

func (b *Bot) respond(c tele.Context) {
	if err := c.Respond(); err != nil {
		b.log.Debug("Callback acknowledgement failed", "error", err)
	}
}

// Start polls updates until Stop is called.
func (b *Bot) Start() {
	b.log.Info("Telegram polling started")
	b.bot.Start()
}

func (b *Bot) Stop() {
	b.bot.Stop()
	b.log.Info("Telegram polling stopped")
}

func (b *Bot) Send(ctx context.Context, chat domain.ChatID, text string, prompt domain.Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var opts []interface{}
	if markup := promptMarkup(prompt); markup != nil {
		opts = append(opts, markup)
	}
	_, err := b.bot.Send(tele.ChatID(chat), text, opts...)
	return err
}

func (b *Bot) Reply(ctx context.Context, to domain.MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.bot.Reply(&tele.Message{ID: to.MessageID, Chat: &tele.Chat{ID: int64(to.ChatID)}}, text)
	return err
}

func (b *Bot) DeleteMessage(ctx context.Context, ref domain.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.bot.Delete(tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: int64(ref.ChatID)})
}

func (b *Bot) BanMember(ctx context.Context, group domain.ChatID, user domain.UserID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.bot.Ban(&tele.Chat{ID: int64(group)}, &tele.ChatMember{User: &tele.User{ID: int64(user)}})
}

func (b *Bot) IsChatAdmin(ctx context.Context, chat domain.ChatID, user domain.UserID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m, err := b.bot.ChatMemberOf(&tele.Chat{ID: int64(chat)}, &tele.User{ID: int64(user)})
	if err != nil {
		return false, err
	}
	return domain.MemberStatus(m.Role).IsAdmin(), nil
}

// SendToAdmin prefers the numeric chat and resolves the username otherwise.
func (b *Bot) SendToAdmin(ctx context.Context, dest domain.AdminDestination, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dest.ChatID != 0 {
		_, err := b.bot.Send(tele.ChatID(dest.ChatID), text)
		return err
	}
	chat, err := b.bot.ChatByUsername("@" + strings.TrimPrefix(dest.Username, "@"))
	if err != nil {
		return fmt.Errorf("resolve admin %q: %w", dest.Username, err)
	}
	_, err = b.bot.Send(chat, text)
	return err
}
