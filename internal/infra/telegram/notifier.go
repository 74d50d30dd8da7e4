// Package telegram delivers engine events to an operations chat.
package telegram

import (
	"context"
	"fmt"

	"billvault/internal/domain/billing"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Notifier implements billing.Publisher by posting a short message per event
// to the configured chat. Delivery is best-effort: failures are logged and
// never propagate into the engine operation that emitted the event.
type Notifier struct {
	bot    *telebot.Bot
	chatID int64
	log    *logrus.Logger
}

func NewNotifier(bot *telebot.Bot, chatID int64, log *logrus.Logger) *Notifier {
	return &Notifier{bot: bot, chatID: chatID, log: log}
}

func (n *Notifier) Publish(_ context.Context, event billing.Event) {
	recipient := &telebot.Chat{ID: n.chatID}
	if _, err := n.bot.Send(recipient, formatEvent(event)); err != nil {
		n.log.WithError(err).WithField("event", event.EventName()).Error("failed to deliver Telegram notification")
	}
}

func formatEvent(event billing.Event) string {
	switch e := event.(type) {
	case billing.AdminTransferInitiated:
		return fmt.Sprintf("🔑 Admin transfer initiated to %s", e.NewAdmin)
	case billing.AdminTransferred:
		return fmt.Sprintf("🔑 Admin transferred to %s", e.NewAdmin)
	case billing.FeeRecipientUpdated:
		return fmt.Sprintf("💼 Fee recipient updated: %s", e.Recipient)
	case billing.CycleCreated:
		return fmt.Sprintf("📅 Cycle %d created for %s", e.CycleID, e.User)
	case billing.CycleEnded:
		return fmt.Sprintf("🏁 Cycle %d ended, surplus %s returned", e.CycleID, e.Surplus.String())
	case billing.BillAdded:
		return fmt.Sprintf("🧾 Bill %d added to cycle %d", e.BillID, e.CycleID)
	case billing.BillPaid:
		return fmt.Sprintf("✅ Bill %d paid (%s)", e.BillID, e.Amount.String())
	case billing.BillCancelled:
		return fmt.Sprintf("🚫 Bill %d cancelled", e.BillID)
	default:
		return fmt.Sprintf("event: %s", event.EventName())
	}
}
