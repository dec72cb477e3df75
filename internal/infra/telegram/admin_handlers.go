package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"review_reminder/internal/app"
	idb "review_reminder/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const msgUnauthorized = "Fehler: Sie haben keine Berechtigung für diesen Befehl."

// SweepRunner runs one due-notification sweep on demand.
type SweepRunner interface {
	ProcessDueNotifications(ctx context.Context) (*app.SweepResult, error)
}

// SubscriberDeactivator stops reminders for an email address.
type SubscriberDeactivator interface {
	Deactivate(ctx context.Context, email string) error
}

type adminHandlers struct {
	ctx         context.Context
	sweeper     SweepRunner
	subscribers SubscriberDeactivator
	operatorID  int64
	logger      *logrus.Entry
}

// RegisterAdminHandlers registers the operator commands. Only operatorID may use them.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, sweeper SweepRunner, subscribers SubscriberDeactivator, operatorID int64, baseLogger *logrus.Entry) {
	h := &adminHandlers{
		ctx:         ctx,
		sweeper:     sweeper,
		subscribers: subscribers,
		operatorID:  operatorID,
		logger:      baseLogger,
	}
	b.Handle("/sweep", h.handleSweep)
	b.Handle("/deactivate", h.handleDeactivate)
}

func (h *adminHandlers) handleSweep(c telebot.Context) error {
	handlerLogger := h.logger.WithFields(logrus.Fields{
		"handler":   "/sweep",
		"sender_id": c.Sender().ID,
	})
	handlerLogger.Info("Command received")

	if c.Sender().ID != h.operatorID {
		handlerLogger.Warn("Unauthorized access attempt")
		return c.Send(msgUnauthorized)
	}

	res, err := h.sweeper.ProcessDueNotifications(h.ctx)
	if err != nil {
		logWithError := handlerLogger.WithError(err)
		if errors.Is(err, app.ErrSweepInProgress) {
			logWithError.Warn("Sweep already running")
			return c.Send("Ein Versand läuft bereits. Bitte später erneut versuchen.")
		}
		logWithError.Error("On-demand sweep failed")
		return c.Send(fmt.Sprintf("Der Versand ist fehlgeschlagen: %s", err.Error()))
	}

	handlerLogger.WithFields(logrus.Fields{
		"sent":    res.SentCount,
		"failed":  res.FailedCount,
		"skipped": res.SkippedCount,
	}).Info("On-demand sweep finished")

	var response strings.Builder
	response.WriteString("Versand abgeschlossen.\n")
	response.WriteString(fmt.Sprintf("Gesendet: %d\nFehlgeschlagen: %d\nÜbersprungen: %d\n", res.SentCount, res.FailedCount, res.SkippedCount))
	for _, r := range res.Results {
		if r.Status == app.SweepStatusFailed {
			response.WriteString(fmt.Sprintf("- %s: %s\n", r.Email, r.Error))
		}
	}
	return c.Send(response.String())
}

func (h *adminHandlers) handleDeactivate(c telebot.Context) error {
	handlerLogger := h.logger.WithFields(logrus.Fields{
		"handler":   "/deactivate",
		"sender_id": c.Sender().ID,
	})
	handlerLogger.Info("Command received")

	if c.Sender().ID != h.operatorID {
		handlerLogger.Warn("Unauthorized access attempt")
		return c.Send(msgUnauthorized)
	}

	args := c.Args()
	// Expected format: /deactivate <email>
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return c.Send("Ungültiges Format. Verwenden Sie: /deactivate <E-Mail>")
	}
	addr := strings.TrimSpace(args[0])

	err := h.subscribers.Deactivate(h.ctx, addr)
	if err != nil {
		logWithError := handlerLogger.WithError(err)
		switch {
		case errors.Is(err, idb.ErrSubscriberNotFound):
			logWithError.Warn("Subscriber to deactivate not found")
			return c.Send(fmt.Sprintf("Kein Abonnent mit der Adresse %s gefunden.", addr))
		case errors.Is(err, app.ErrSubscriberAlreadyInactive):
			logWithError.Warn("Subscriber already inactive")
			return c.Send(fmt.Sprintf("Der Abonnent %s ist bereits deaktiviert.", addr))
		default:
			logWithError.Error("Failed to deactivate subscriber")
			return c.Send(fmt.Sprintf("Fehler beim Deaktivieren: %s", err.Error()))
		}
	}

	handlerLogger.Info("Subscriber deactivated")
	return c.Send(fmt.Sprintf("Der Abonnent %s wurde deaktiviert und erhält keine Erinnerungen mehr.", addr))
}
