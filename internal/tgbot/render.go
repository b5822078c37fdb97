package tgbot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"taxi-bot/internal/auth"
	"taxi-bot/internal/dispatch"
	"taxi-bot/internal/ledger"
	"taxi-bot/internal/models"
	"taxi-bot/internal/session"
	"taxi-bot/internal/storage"
	"taxi-bot/internal/zones"
)

const helpText = "🚕 Бот працює\n" +
	"Команди:\n" +
	"/add [адреса] - додати адресу\n" +
	"/list [YYYY-MM-DD] - адреси та машини\n" +
	"/del [номер] - видалити адресу\n" +
	"/undo - видалити останню адресу\n" +
	"/clear - очистити сьогоднішній список\n" +
	"/export - вивантажити CSV\n" +
	"/addMan [ID] /delMan [ID] /managers - менеджери\n" +
	"/cancel - скасувати введення"

// view is what rendering needs besides the reply itself.
type view struct {
	user     int64
	today    string
	zoneName func(models.ZoneID) string
}

func render(v view, r dispatch.Reply) string {
	switch r.Kind {
	case dispatch.KindHelp:
		text := helpText
		if r.Bootstrap {
			text += fmt.Sprintf("\n\n🔑 Менеджерів ще немає. Стань першим: /addMan %d", v.user)
		}
		return text
	case dispatch.KindPrompt:
		return promptText(r.Prompt)
	case dispatch.KindAdded:
		zone := "зону не визначено"
		if r.Entry.Zone.Known() {
			zone = "зона: " + v.zoneName(r.Entry.Zone)
		}
		return fmt.Sprintf("✅ Адресу додано (#%d, %s)", r.Index, zone)
	case dispatch.KindRemoved:
		return "🗑 Адресу видалено: " + r.Entry.Text
	case dispatch.KindCleared:
		return fmt.Sprintf("🧹 Список очищено (%d)", r.Count)
	case dispatch.KindListing, dispatch.KindExport:
		return renderSheet(v, r.Sheet)
	case dispatch.KindManagerAdded:
		return "✅ Менеджера додано"
	case dispatch.KindManagerRemoved:
		return "🗑 Менеджера видалено"
	case dispatch.KindManagers:
		var b strings.Builder
		b.WriteString("👥 Менеджери:\n")
		for _, id := range r.Managers {
			b.WriteString("• " + strconv.FormatInt(int64(id), 10) + "\n")
		}
		return strings.TrimRight(b.String(), "\n")
	case dispatch.KindCancelled:
		return "↩️ Скасовано"
	default:
		return "👌"
	}
}

func promptText(s session.State) string {
	switch s {
	case session.AwaitingAddress:
		return "✍️ Надішли адресу одним повідомленням"
	case session.AwaitingManagerID:
		return "✍️ Надішли Telegram ID нового менеджера"
	case session.AwaitingRemoveManagerID:
		return "✍️ Надішли Telegram ID менеджера, якого треба видалити"
	case session.AwaitingDeleteIndex:
		return "✍️ Надішли номер адреси, яку треба видалити"
	default:
		return "✍️ Чекаю на відповідь"
	}
}

func renderSheet(v view, s dispatch.DaySheet) string {
	if len(s.Entries) == 0 {
		return "📭 Список порожній"
	}
	var b strings.Builder
	if s.Day == v.today {
		b.WriteString("📋 Адреси на сьогодні:\n\n")
	} else {
		b.WriteString("📋 Адреси на " + s.Day + ":\n\n")
	}
	for i, e := range s.Entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.Text)
	}
	b.WriteString("\n🚕 Машини:\n")
	for i, m := range s.Manifests {
		fmt.Fprintf(&b, "\nАвто %d · %s\n", i+1, zoneLabel(v, m.Zone))
		for _, e := range m.Entries {
			b.WriteString("  • " + e.Text + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func zoneLabel(v view, z models.ZoneID) string {
	if !z.Known() {
		return zones.UnknownLabel
	}
	return v.zoneName(z)
}

// renderError turns a dispatch error into the user-facing text. cmd is the
// lower-cased command the message carried, empty for plain text.
func renderError(cmd string, err error) string {
	switch {
	case errors.Is(err, auth.ErrDenied):
		return "⛔ Ти не менеджер"
	case errors.Is(err, auth.ErrAlreadyManager):
		return "ℹ️ Цей користувач вже менеджер"
	case errors.Is(err, auth.ErrNotFound):
		return "ℹ️ Цей користувач не менеджер"
	case errors.Is(err, ledger.ErrEmpty):
		return "📭 Список порожній"
	case errors.Is(err, ledger.ErrOutOfRange):
		return "❗ Немає адреси з таким номером. Подивись /list"
	case errors.Is(err, zones.ErrMalformedInput):
		return "❗ Формат: Ім'я - адреса (станція метро)"
	case errors.Is(err, zones.ErrUnclassifiable):
		return "❓ Не вдалося визначити зону. Уточни адресу або станцію метро"
	case errors.Is(err, dispatch.ErrBadArgument):
		return usage(cmd)
	case errors.Is(err, dispatch.ErrUnknownCommand):
		return "🤷 Невідома команда. Список команд: /help"
	case errors.Is(err, dispatch.ErrNothingPending):
		if cmd == "cancel" {
			return "ℹ️ Нічого скасовувати"
		}
		return "ℹ️ Обери команду: /help"
	case errors.Is(err, storage.ErrUnavailable):
		return "⚠️ Сховище недоступне, спробуй пізніше"
	default:
		return "⚠️ Щось пішло не так, спробуй пізніше"
	}
}

// promptCommand is the command that issues prompt s.
func promptCommand(s session.State) string {
	switch s {
	case session.AwaitingAddress:
		return "add"
	case session.AwaitingManagerID:
		return "addman"
	case session.AwaitingRemoveManagerID:
		return "delman"
	case session.AwaitingDeleteIndex:
		return "del"
	default:
		return ""
	}
}

func usage(cmd string) string {
	switch cmd {
	case "addman", "addmanager":
		return "❗ Використання: /addMan 123456789"
	case "delman", "delmanager":
		return "❗ Використання: /delMan 123456789"
	case "del", "delete":
		return "❗ Використання: /del 3"
	case "list", "export":
		return "❗ Використання: /" + cmd + " 2024-05-01"
	case "add":
		return "❗ Адреса порожня"
	default:
		return "❗ Невірне значення, почни знову: /help"
	}
}
