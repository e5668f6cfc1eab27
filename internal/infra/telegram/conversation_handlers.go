// internal/infra/telegram/conversation_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"github.com/EdwarHercules/bots-telegram/internal/app"
	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
	"github.com/EdwarHercules/bots-telegram/internal/domain/request"
)

const (
	msgAskFullName      = "Bienvenido. Ingresa tu nombre y apellido para completar el registro:"
	msgNotAllowListed   = "No se encontró un usuario habilitado con ese nombre. Contacta al administrador."
	msgNotRegistered    = "No estás registrado. Usa /start para registrarte."
	msgPickReportType   = "Selecciona el tipo de reporte:"
	msgPickBrand        = "Selecciona la marca del medidor:"
	msgAskMeter         = "Ingresa el número del medidor:"
	msgInvalidOption    = "Opción no válida. Selecciona una opción del menú."
	msgCancelled        = "Operación cancelada."
	msgGenericError     = "Ocurrió un error procesando tu solicitud. Intenta nuevamente más tarde."
	msgIdleHint         = "Usa /menu para solicitar un reporte."
	msgPlanNotAllowed   = "No tienes permisos para registrar planificación."
	msgAskPlanInput     = "Envía la lista de claves (separadas por comas o saltos de línea) o adjunta el archivo Excel de planificación."
	msgPlanInputEmpty   = "No se encontraron claves en el mensaje."
	msgPlanFileRejected = "No se pudo leer el archivo de planificación: %v"
)

// RegisterConversationHandlers wires the whole chat surface: registration,
// the report request flow and the planning flow. All multi-message flows run
// through the session store; /cancelar aborts any of them.
func RegisterConversationHandlers(
	ctx context.Context,
	b *telebot.Bot,
	requestService *app.RequestService,
	planService *app.PlanService,
	planParser PlanFileParser,
	sessions *SessionStore,
	baseLogger *logrus.Entry,
) {
	h := &conversationHandler{
		ctx:        ctx,
		bot:        b,
		requests:   requestService,
		plans:      planService,
		planParser: planParser,
		sessions:   sessions,
		logger:     baseLogger.WithField("handler_group", "conversation"),
	}

	b.Handle("/start", h.onStart)
	b.Handle("/menu", h.onMenu)
	b.Handle("/planificacion", h.onPlan)
	b.Handle("/cancelar", h.onCancel)
	b.Handle(telebot.OnText, h.onText)
	b.Handle(telebot.OnDocument, h.onDocument)
}

type conversationHandler struct {
	ctx        context.Context
	bot        *telebot.Bot
	requests   *app.RequestService
	plans      *app.PlanService
	planParser PlanFileParser
	sessions   *SessionStore
	logger     *logrus.Entry
}

func (h *conversationHandler) onStart(c telebot.Context) error {
	senderID := c.Sender().ID
	logCtx := h.logger.WithField("command", "/start").WithField("sender_id", senderID)
	logCtx.Info("Processing /start command")

	u, err := h.requests.Lookup(h.ctx, senderID)
	if err == nil {
		return c.Send(fmt.Sprintf("Hola %s, ya estás registrado. %s", u.DisplayName(), msgIdleHint))
	}
	if !errors.Is(err, app.ErrUserNotRegistered) {
		logCtx.WithError(err).Error("Error checking registration for /start")
		return c.Send(msgGenericError)
	}

	h.sessions.Update(senderID, func(s *Session) { *s = Session{Step: StepAwaitingName} })
	return c.Send(msgAskFullName)
}

func (h *conversationHandler) onMenu(c telebot.Context) error {
	senderID := c.Sender().ID
	logCtx := h.logger.WithField("command", "/menu").WithField("sender_id", senderID)

	if _, err := h.requests.Lookup(h.ctx, senderID); err != nil {
		if errors.Is(err, app.ErrUserNotRegistered) {
			return c.Send(msgNotRegistered)
		}
		logCtx.WithError(err).Error("Error checking registration for /menu")
		return c.Send(msgGenericError)
	}

	h.sessions.Update(senderID, func(s *Session) { *s = Session{Step: StepAwaitingReportType} })
	return c.Send(msgPickReportType, reportTypeKeyboard())
}

func (h *conversationHandler) onPlan(c telebot.Context) error {
	senderID := c.Sender().ID
	logCtx := h.logger.WithField("command", "/planificacion").WithField("sender_id", senderID)

	u, err := h.requests.Lookup(h.ctx, senderID)
	if err != nil {
		if errors.Is(err, app.ErrUserNotRegistered) {
			return c.Send(msgNotRegistered)
		}
		logCtx.WithError(err).Error("Error checking registration for /planificacion")
		return c.Send(msgGenericError)
	}
	if !u.Role.CanPlan() {
		logCtx.WithField("role", string(u.Role)).Info("Planning rejected for role")
		return c.Send(msgPlanNotAllowed)
	}

	h.sessions.Update(senderID, func(s *Session) { *s = Session{Step: StepAwaitingPlanInput} })
	return c.Send(msgAskPlanInput)
}

func (h *conversationHandler) onCancel(c telebot.Context) error {
	h.sessions.Reset(c.Sender().ID)
	return c.Send(msgCancelled, removeKeyboard())
}

func (h *conversationHandler) onText(c telebot.Context) error {
	senderID := c.Sender().ID
	text := c.Text()
	sess := h.sessions.Snapshot(senderID)

	switch sess.Step {
	case StepAwaitingName:
		return h.handleName(c, senderID, text)
	case StepAwaitingReportType:
		return h.handleReportType(c, senderID, text)
	case StepAwaitingBrand:
		return h.handleBrand(c, senderID, text)
	case StepAwaitingMeter:
		return h.handleMeter(c, senderID, sess, text)
	case StepAwaitingPlanInput:
		return h.handlePlanText(c, senderID, text)
	default:
		return c.Send(msgIdleHint)
	}
}

func (h *conversationHandler) handleName(c telebot.Context, senderID int64, fullName string) error {
	logCtx := h.logger.WithField("step", "registration").WithField("sender_id", senderID)

	u, err := h.requests.Register(h.ctx, senderID, fullName, c.Sender().FirstName, c.Sender().Username)
	if errors.Is(err, app.ErrNotAllowListed) {
		h.sessions.Reset(senderID)
		logCtx.WithField("full_name", fullName).Info("Registration rejected: no allow-list match")
		return c.Send(msgNotAllowListed)
	}
	if err != nil {
		logCtx.WithError(err).Error("Registration failed")
		return c.Send(msgGenericError)
	}

	h.sessions.Reset(senderID)
	logCtx.WithField("user_id", u.ID).Info("User registered")
	return c.Send(fmt.Sprintf("Registro exitoso, %s. %s", u.DisplayName(), msgIdleHint))
}

func (h *conversationHandler) handleReportType(c telebot.Context, senderID int64, text string) error {
	reportType, ok := request.ParseReportType(text)
	if !ok {
		return c.Send(msgInvalidOption)
	}
	h.sessions.Update(senderID, func(s *Session) {
		s.Step = StepAwaitingBrand
		s.ReportType = reportType
	})
	return c.Send(msgPickBrand, brandKeyboard())
}

func (h *conversationHandler) handleBrand(c telebot.Context, senderID int64, text string) error {
	brand, err := meter.ParseBrand(text)
	if err != nil {
		return c.Send(msgInvalidOption)
	}
	h.sessions.Update(senderID, func(s *Session) {
		s.Step = StepAwaitingMeter
		s.Brand = brand
	})
	return c.Send(msgAskMeter, removeKeyboard())
}

func (h *conversationHandler) handleMeter(c telebot.Context, senderID int64, sess Session, text string) error {
	logCtx := h.logger.WithField("step", "submit").WithField("sender_id", senderID)
	h.sessions.Reset(senderID)

	req, err := h.requests.Submit(h.ctx, senderID, sess.ReportType, sess.Brand, text)
	if err != nil {
		return c.Send(h.submitErrorReply(logCtx, err, meter.Normalize(text, sess.Brand)))
	}
	return c.Send(fmt.Sprintf("La solicitud de validación está en proceso para el medidor: %s. Recibirás el reporte en breve.", req.Meter))
}

func (h *conversationHandler) submitErrorReply(logCtx *logrus.Entry, err error, meterKey string) string {
	switch {
	case errors.Is(err, app.ErrUserNotRegistered):
		return msgNotRegistered
	case errors.Is(err, app.ErrMeterUnknown):
		return fmt.Sprintf("El medidor %s no tiene información en el sistema.", meterKey)
	case errors.Is(err, app.ErrMeterNotPlanned):
		return fmt.Sprintf("El medidor %s no se encuentra en la planificación.", meterKey)
	case errors.Is(err, app.ErrPlanExpired):
		return fmt.Sprintf("La planificación del medidor %s está vencida. Solicita una nueva planificación.", meterKey)
	default:
		logCtx.WithError(err).Error("Request submission failed")
		return msgGenericError
	}
}

func (h *conversationHandler) handlePlanText(c telebot.Context, senderID int64, text string) error {
	logCtx := h.logger.WithField("step", "plan_text").WithField("sender_id", senderID)

	u, err := h.requests.Lookup(h.ctx, senderID)
	if err != nil {
		logCtx.WithError(err).Error("Error resolving planner")
		return c.Send(msgGenericError)
	}

	keys := app.SplitPlanInput(text)
	n, err := h.plans.RegisterKeys(h.ctx, u, keys)
	if errors.Is(err, app.ErrEmptyPlanInput) {
		return c.Send(msgPlanInputEmpty)
	}
	if err != nil {
		logCtx.WithError(err).Error("Plan registration failed")
		return c.Send(msgGenericError)
	}

	h.sessions.Reset(senderID)
	return c.Send(fmt.Sprintf("Planificación registrada: %d medidores.", n))
}

func reportTypeKeyboard() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	rows := make([]telebot.Row, 0, len(request.ReportTypes()))
	for _, t := range request.ReportTypes() {
		rows = append(rows, menu.Row(menu.Text(t.Title())))
	}
	menu.Reply(rows...)
	return menu
}

func brandKeyboard() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	row := make([]telebot.Btn, 0, len(meter.Brands()))
	for _, b := range meter.Brands() {
		row = append(row, menu.Text(string(b)))
	}
	menu.Reply(menu.Row(row...))
	return menu
}

func removeKeyboard() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{RemoveKeyboard: true}
}
