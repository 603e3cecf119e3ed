package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"haulbot/internal/transport"
	"haulbot/pkg/logx"
)

// Ops is the set of operator actions the command handlers invoke. The app
// wires these to the pipeline; the adapter stays ignorant of its internals.
type Ops struct {
	SetPosting func(enabled bool)
	Posting    func() bool
	Status     func(ctx context.Context) string
	ClearLoads func(ctx context.Context) error

	AddCity    func(city string) (bool, error)
	RemoveCity func(city string) (bool, error)
	ListCities func() []string
}

var menuCommands = []transport.BotCommand{
	{Command: "startpost", Description: "🚀 Resume posting loads"},
	{Command: "stoppost", Description: "⏸ Pause posting loads"},
	{Command: "status", Description: "📊 Check posting status"},
	{Command: "clearloads", Description: "🧹 Clear all seen load IDs"},
	{Command: "addcity", Description: "➕ Add city to filter"},
	{Command: "removecity", Description: "➖ Remove city from filter"},
	{Command: "listcities", Description: "📍 Show tracked cities"},
	{Command: "help", Description: "❓ Show help message"},
}

const helpText = "<b>🛠 Admin Commands</b>\n\n" +
	"<b>/startpost</b> – Resume posting loads to the channel\n" +
	"<b>/stoppost</b> – Pause posting loads\n" +
	"<b>/status</b> – Check posting status\n" +
	"<b>/clearloads</b> – Clear all stored load IDs\n" +
	"<b>/addcity CITY</b> – Add a city to the filter list\n" +
	"<b>/removecity CITY</b> – Remove a city from the filter list\n" +
	"<b>/listcities</b> – Show all tracked cities\n"

// BindOps registers the operator command handlers and publishes the command
// menu. Commands are accepted only from configured admins in private chats.
func (a *Adapter) BindOps(ops Ops) error {
	guard := func(h func(c tele.Context) error) func(c tele.Context) error {
		return func(c tele.Context) error {
			m := c.Message()
			if m == nil || m.Sender == nil {
				return nil
			}
			if !m.Private() {
				return nil
			}
			if !a.isAdmin(m.Sender.ID) {
				return c.Reply("❌ You don't have permission to use this command.")
			}
			return h(c)
		}
	}

	html := &tele.SendOptions{ParseMode: tele.ModeHTML, DisableWebPagePreview: true}

	a.bot.Handle("/stoppost", guard(func(c tele.Context) error {
		ops.SetPosting(false)
		a.log.Info("posting paused by admin", logx.Int64("admin", c.Sender().ID))
		return c.Reply("⏸ Posting paused!")
	}))

	a.bot.Handle("/startpost", guard(func(c tele.Context) error {
		ops.SetPosting(true)
		a.log.Info("posting resumed by admin", logx.Int64("admin", c.Sender().ID))
		return c.Reply("✅ Posting enabled!")
	}))

	a.bot.Handle("/status", guard(func(c tele.Context) error {
		return c.Send(ops.Status(context.Background()), html)
	}))

	a.bot.Handle("/clearloads", guard(func(c tele.Context) error {
		if err := ops.ClearLoads(context.Background()); err != nil {
			a.log.Error("clear loads failed", logx.Err(err))
			return c.Reply("❌ Failed to clear stored load IDs.")
		}
		a.log.Info("seen loads cleared by admin", logx.Int64("admin", c.Sender().ID))
		return c.Send("✅ All load IDs have been cleared from the database.")
	}))

	a.bot.Handle("/addcity", guard(func(c tele.Context) error {
		city := commandArg(c.Message().Text)
		if city == "" {
			return c.Send("⚠️ Please provide a city name.\nExample: /addcity Miami")
		}
		added, err := ops.AddCity(city)
		if err != nil {
			a.log.Error("add city failed", logx.String("city", city), logx.Err(err))
			return c.Reply("❌ Failed to update the cities list.")
		}
		if !added {
			return c.Send(fmt.Sprintf("⚠️ City %s is already in the list.", strings.ToUpper(city)))
		}
		return c.Send(fmt.Sprintf("✅ City %s has been added to the cities list.", strings.ToUpper(city)))
	}))

	a.bot.Handle("/removecity", guard(func(c tele.Context) error {
		city := commandArg(c.Message().Text)
		if city == "" {
			return c.Send("⚠️ Please provide a city name.\nExample: /removecity Miami")
		}
		removed, err := ops.RemoveCity(city)
		if err != nil {
			a.log.Error("remove city failed", logx.String("city", city), logx.Err(err))
			return c.Reply("❌ Failed to update the cities list.")
		}
		if !removed {
			return c.Reply(fmt.Sprintf("❌ City %s not found in the cities list.", strings.ToUpper(city)))
		}
		return c.Send(fmt.Sprintf("✅ City <b>%s</b> has been removed from the cities list.", strings.ToUpper(city)), html)
	}))

	a.bot.Handle("/listcities", guard(func(c tele.Context) error {
		list := ops.ListCities()
		if len(list) == 0 {
			return c.Send("📄 <b>Cities list is empty.</b>", html)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "📄 <b>Cities list (%d):</b>\n\n", len(list))
		for _, city := range list {
			b.WriteString("• ")
			b.WriteString(city)
			b.WriteString("\n")
		}
		return c.Send(b.String(), html)
	}))

	a.bot.Handle("/help", guard(func(c tele.Context) error {
		return c.Send(helpText, html)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.UpdateMenuCommands(ctx, menuCommands)
}

// commandArg returns everything after the command word, trimmed.
func commandArg(text string) string {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
