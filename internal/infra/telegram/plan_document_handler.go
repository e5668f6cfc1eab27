// internal/infra/telegram/plan_document_handler.go
package telegram

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"github.com/EdwarHercules/bots-telegram/internal/app"
	"github.com/EdwarHercules/bots-telegram/internal/domain/plan"
)

// PlanFileParser turns an uploaded planning workbook into plan entries.
type PlanFileParser func(r io.Reader) ([]*plan.Entry, error)

func (h *conversationHandler) onDocument(c telebot.Context) error {
	senderID := c.Sender().ID
	if h.sessions.Snapshot(senderID).Step != StepAwaitingPlanInput {
		return c.Send(msgIdleHint)
	}
	logCtx := h.logger.WithField("step", "plan_file").WithField("sender_id", senderID)

	u, err := h.requests.Lookup(h.ctx, senderID)
	if err != nil {
		logCtx.WithError(err).Error("Error resolving planner")
		return c.Send(msgGenericError)
	}

	doc := c.Message().Document
	if doc == nil {
		return c.Send(msgInvalidOption)
	}

	rc, err := h.bot.File(&doc.File)
	if err != nil {
		logCtx.WithError(err).Error("Plan file download failed")
		return c.Send(msgGenericError)
	}
	defer rc.Close()

	entries, err := h.planParser(rc)
	if err != nil {
		logCtx.WithError(err).WithField("file_name", doc.FileName).Info("Plan file rejected")
		return c.Send(fmt.Sprintf(msgPlanFileRejected, err))
	}

	n, err := h.plans.RegisterEntries(h.ctx, u, entries)
	if errors.Is(err, app.ErrEmptyPlanInput) {
		return c.Send(msgPlanInputEmpty)
	}
	if err != nil {
		logCtx.WithError(err).Error("Plan registration failed")
		return c.Send(msgGenericError)
	}

	h.sessions.Reset(senderID)
	logCtx.WithFields(logrus.Fields{"file_name": doc.FileName, "entries": n}).Info("Plan file registered")
	return c.Send(fmt.Sprintf("Planificación registrada: %d medidores.", n))
}
