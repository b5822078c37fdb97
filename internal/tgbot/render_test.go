package tgbot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"taxi-bot/internal/auth"
	"taxi-bot/internal/dispatch"
	"taxi-bot/internal/grouping"
	"taxi-bot/internal/ledger"
	"taxi-bot/internal/models"
	"taxi-bot/internal/session"
	"taxi-bot/internal/storage"
	"taxi-bot/internal/zones"
)

func testView() view {
	return view{
		user:  42,
		today: "2024-05-01",
		zoneName: func(z models.ZoneID) string {
			return fmt.Sprintf("Z%d", z)
		},
	}
}

func TestRenderHelp(t *testing.T) {
	v := testView()
	assert.Equal(t, helpText, render(v, dispatch.Reply{Kind: dispatch.KindHelp}))
	assert.Contains(t, render(v, dispatch.Reply{Kind: dispatch.KindHelp, Bootstrap: true}), "/addMan 42")
}

func TestRenderAdded(t *testing.T) {
	v := testView()
	r := dispatch.Reply{Kind: dispatch.KindAdded, Index: 3, Entry: models.Entry{Text: "x", Zone: 2}}
	assert.Equal(t, "✅ Адресу додано (#3, зона: Z2)", render(v, r))

	r.Entry.Zone = models.ZoneUnknown
	assert.Equal(t, "✅ Адресу додано (#3, зону не визначено)", render(v, r))
}

func TestRenderPrompts(t *testing.T) {
	v := testView()
	for _, s := range []session.State{
		session.AwaitingAddress, session.AwaitingManagerID,
		session.AwaitingRemoveManagerID, session.AwaitingDeleteIndex,
	} {
		got := render(v, dispatch.Reply{Kind: dispatch.KindPrompt, Prompt: s})
		assert.Contains(t, got, "✍️", s.String())
	}
	assert.Equal(t, "✍️ Надішли адресу одним повідомленням",
		render(v, dispatch.Reply{Kind: dispatch.KindPrompt, Prompt: session.AwaitingAddress}))
}

func TestRenderSheet(t *testing.T) {
	v := testView()
	e1 := models.Entry{Text: "Оля - Хрещатик 1 (Хрещатик)", Zone: 1}
	e2 := models.Entry{Text: "Петро - десь", Zone: models.ZoneUnknown}
	sheet := dispatch.DaySheet{
		Day:     "2024-05-01",
		Entries: []models.Entry{e1, e2},
		Manifests: []grouping.Manifest{
			{Zone: 1, Entries: []models.Entry{e1}},
			{Zone: models.ZoneUnknown, Entries: []models.Entry{e2}},
		},
	}
	want := "📋 Адреси на сьогодні:\n\n" +
		"1. Оля - Хрещатик 1 (Хрещатик)\n" +
		"2. Петро - десь\n" +
		"\n🚕 Машини:\n" +
		"\nАвто 1 · Z1\n" +
		"  • Оля - Хрещатик 1 (Хрещатик)\n" +
		"\nАвто 2 · зона не визначена\n" +
		"  • Петро - десь"
	assert.Equal(t, want, render(v, dispatch.Reply{Kind: dispatch.KindListing, Sheet: sheet}))

	sheet.Day = "2024-04-30"
	assert.Contains(t, render(v, dispatch.Reply{Kind: dispatch.KindListing, Sheet: sheet}), "📋 Адреси на 2024-04-30:")

	assert.Equal(t, "📭 Список порожній", render(v, dispatch.Reply{Kind: dispatch.KindListing}))
}

func TestRenderManagers(t *testing.T) {
	got := render(testView(), dispatch.Reply{Kind: dispatch.KindManagers, Managers: []models.UserID{1, 2}})
	assert.Equal(t, "👥 Менеджери:\n• 1\n• 2", got)
}

func TestRenderError(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("op: %w", err) }
	cases := []struct {
		cmd  string
		err  error
		want string
	}{
		{"add", auth.ErrDenied, "⛔ Ти не менеджер"},
		{"addman", wrap(auth.ErrAlreadyManager), "ℹ️ Цей користувач вже менеджер"},
		{"delman", auth.ErrNotFound, "ℹ️ Цей користувач не менеджер"},
		{"addman", wrap(dispatch.ErrBadArgument), "❗ Використання: /addMan 123456789"},
		{"delman", wrap(dispatch.ErrBadArgument), "❗ Використання: /delMan 123456789"},
		{"undo", wrap(ledger.ErrEmpty), "📭 Список порожній"},
		{"cancel", dispatch.ErrNothingPending, "ℹ️ Нічого скасовувати"},
		{"", dispatch.ErrNothingPending, "ℹ️ Обери команду: /help"},
		{"", wrap(zones.ErrUnclassifiable), "❓ Не вдалося визначити зону. Уточни адресу або станцію метро"},
		{"", storage.Unavailable("load", errors.New("disk")), "⚠️ Сховище недоступне, спробуй пізніше"},
		{"x", errors.New("boom"), "⚠️ Щось пішло не так, спробуй пізніше"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, renderError(c.cmd, c.err), c.err.Error())
	}
}
