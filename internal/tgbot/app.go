package tgbot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"taxi-bot/internal/config"
	"taxi-bot/internal/dispatch"
	"taxi-bot/internal/models"
	"taxi-bot/internal/session"
	"taxi-bot/internal/sheets"
	"taxi-bot/internal/util"
)

// sender is the outbound half of the Bot API.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type App struct {
	cfg config.Config
	api *tgbotapi.BotAPI
	out sender
	svc *dispatch.Service
	sh  *sheets.Client
	log zerolog.Logger
}

// New connects to Telegram. sh may be nil when Google Sheets is not
// configured.
func New(cfg config.Config, svc *dispatch.Service, sh *sheets.Client, log zerolog.Logger) (*App, error) {
	b, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	log.Info().Str("bot", b.Self.UserName).Msg("authorized")
	a := newApp(cfg, b, svc, sh, log)
	a.api = b
	return a, nil
}

func newApp(cfg config.Config, out sender, svc *dispatch.Service, sh *sheets.Client, log zerolog.Logger) *App {
	return &App{cfg: cfg, out: out, svc: svc, sh: sh, log: log}
}

func (a *App) Run(ctx context.Context) error {
	if a.api == nil {
		return errors.New("telegram: not connected")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.api.GetUpdatesChan(u)
	defer a.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return errors.New("telegram: updates channel closed")
			}
			if upd.Message != nil {
				if err := a.handleMessage(ctx, upd.Message); err != nil {
					a.log.Error().Err(err).Int64("chat", upd.Message.Chat.ID).Msg("handle msg")
				}
			}
		}
	}
}

func (a *App) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := a.out.Send(msg)
	return err
}

// ---------- Message handling ----------

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	if m.From == nil || m.Chat == nil || strings.TrimSpace(m.Text) == "" {
		return nil
	}
	ev := dispatch.Event{UserID: models.UserID(m.From.ID), Text: m.Text}
	if m.IsCommand() {
		ev.Command = m.Command()
		ev.Args = m.CommandArguments()
	}

	r, err := a.svc.Handle(ctx, ev)
	if err != nil {
		cmd := strings.ToLower(ev.Command)
		if r.Answering != session.Idle {
			cmd = promptCommand(r.Answering)
		}
		return a.SendText(m.Chat.ID, renderError(cmd, err))
	}
	v := view{user: m.From.ID, today: a.svc.Today(), zoneName: a.svc.ZoneName}
	if r.Kind == dispatch.KindExport {
		return a.export(ctx, m.Chat.ID, v, r)
	}
	return a.SendText(m.Chat.ID, render(v, r))
}

// export sends the day's CSV as a document, followed by the signed link and
// the Google Sheets tab when those are configured.
func (a *App) export(ctx context.Context, chatID int64, v view, r dispatch.Reply) error {
	data, err := r.Sheet.CSV()
	if err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "taxi_" + r.Day + ".csv", Bytes: data})
	doc.Caption = "📤 Вивантаження за " + r.Day
	if _, err := a.out.Send(doc); err != nil {
		return err
	}

	lines := []string{render(v, r)}
	if link := util.ExportURL(a.cfg.BasePublicURL, a.cfg.ExportSecret, r.Day); link != "" {
		lines = append(lines, "📤 CSV (посилання): "+link)
	}
	if a.sh != nil {
		if err := a.sh.WriteDispatchSheet(ctx, r.Day, r.Sheet.Manifests, a.svc.ZoneName); err != nil {
			a.log.Error().Err(err).Str("day", r.Day).Msg("write dispatch sheet")
			lines = append(lines, "⚠️ Google Таблиця недоступна")
		} else {
			lines = append(lines, "📊 Таблиця: "+a.sh.URL())
		}
	}
	return a.SendText(chatID, strings.Join(lines, "\n\n"))
}
