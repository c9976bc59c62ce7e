// Package bot implements the Telegram transport: long-polling update loop,
// command and callback handlers, and outbound message delivery for the
// services and background tasks.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/service/delivery"
	"github.com/devprep/interview-bot/internal/service/history"
	"github.com/devprep/interview-bot/internal/service/intake"
	"github.com/devprep/interview-bot/internal/store"
	"github.com/devprep/interview-bot/internal/task"
)

// TaskSubmitter enqueues background work. Implemented by task.Runner.
type TaskSubmitter interface {
	Submit(ctx context.Context, t task.Task) error
}

// DeliveryService drives the question cycle. Implemented by delivery.Service.
type DeliveryService interface {
	StartCycle(ctx context.Context, user *domain.User) error
	Advance(ctx context.Context, user *domain.User) error
}

// IntakeService records answers and manages the awaited pointer.
// Implemented by intake.Service.
type IntakeService interface {
	SubmitAnswer(ctx context.Context, user *domain.User, text string) (intake.Result, error)
	ReopenAnswer(ctx context.Context, userID, questionID int64) error
	CancelAwaiting(ctx context.Context, userID int64) error
}

// HistoryService exposes progress counters and reset. Implemented by
// history.Service.
type HistoryService interface {
	Stats(ctx context.Context, userID int64) (history.Stats, error)
	Reset(ctx context.Context, userID int64) error
}

// Exporter renders a user's answered history. Implemented by export.Service.
type Exporter interface {
	Markdown(ctx context.Context, userID int64) ([]byte, bool, error)
	CSV(ctx context.Context, userID int64) ([]byte, bool, error)
}

// Bot wires the Telegram API to the quiz services.
type Bot struct {
	api       *tgbotapi.BotAPI
	users     store.UserStore
	delivery  DeliveryService
	intake    IntakeService
	history   HistoryService
	export    Exporter
	runner    TaskSubmitter
	tasks     *task.AnnotationTaskFactory
	whitelist map[int64]struct{}
	logger    *slog.Logger
}

// Services collects the service-layer dependencies attached after
// construction. The Bot is built first because it implements
// delivery.Messenger and task.Notifier, which the services need.
type Services struct {
	Delivery DeliveryService
	Intake   IntakeService
	History  HistoryService
	Export   Exporter
	Runner   TaskSubmitter
	Tasks    *task.AnnotationTaskFactory
}

// New creates a Bot with its transport dependencies. AttachServices must
// be called before Run.
func New(api *tgbotapi.BotAPI, users store.UserStore, whitelist map[int64]struct{}, log *slog.Logger) (*Bot, error) {
	if api == nil {
		return nil, fmt.Errorf("telegram API client cannot be nil")
	}
	if users == nil {
		return nil, fmt.Errorf("user store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Bot{
		api:       api,
		users:     users,
		whitelist: whitelist,
		logger:    log.With(slog.String("component", "bot")),
	}, nil
}

// AttachServices wires the service layer into the bot.
func (b *Bot) AttachServices(svc Services) error {
	if svc.Delivery == nil {
		return fmt.Errorf("delivery service cannot be nil")
	}
	if svc.Intake == nil {
		return fmt.Errorf("intake service cannot be nil")
	}
	if svc.History == nil {
		return fmt.Errorf("history service cannot be nil")
	}
	if svc.Export == nil {
		return fmt.Errorf("export service cannot be nil")
	}
	if svc.Runner == nil {
		return fmt.Errorf("task runner cannot be nil")
	}
	if svc.Tasks == nil {
		return fmt.Errorf("task factory cannot be nil")
	}

	b.delivery = svc.Delivery
	b.intake = svc.Intake
	b.history = svc.History
	b.export = svc.Export
	b.runner = svc.Runner
	b.tasks = svc.Tasks
	return nil
}

// Run consumes Telegram updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if b.tasks == nil {
		return fmt.Errorf("services not attached")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("bot update loop started",
		slog.String("username", b.api.Self.UserName))

	err := b.dispatch(ctx, updates)

	b.api.StopReceivingUpdates()
	b.logger.Info("bot update loop stopped")
	return err
}

// dispatch fans updates out to handlers, one goroutine per update, so a
// slow transaction or send for one user never delays another. The
// per-request transaction is the per-user serializing boundary.
func (b *Bot) dispatch(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram updates channel closed")
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, ok := FromUpdate(update)
	if !ok {
		return
	}

	if !b.allowed(ev.ChatID) {
		b.logger.Warn("rejected update from non-whitelisted chat",
			slog.Int64("chat_id", ev.ChatID))
		if ev.Kind == EventCommand {
			b.sendText(ev.ChatID, msgNotAllowed)
		}
		return
	}

	user, err := b.users.GetOrCreateByChatID(ctx, ev.ChatID)
	if err != nil {
		b.logger.Error("failed to resolve user",
			slog.Int64("chat_id", ev.ChatID),
			slog.String("error", err.Error()))
		return
	}

	switch ev.Kind {
	case EventCommand:
		b.handleCommand(ctx, user, ev)
	case EventCallback:
		b.handleCallback(ctx, user, ev)
	case EventText:
		b.handleAnswer(ctx, user, ev.Text)
	}
}

// allowed reports whether the chat may use the bot. An empty whitelist
// means the bot is open to everyone.
func (b *Bot) allowed(chatID int64) bool {
	if len(b.whitelist) == 0 {
		return true
	}
	_, ok := b.whitelist[chatID]
	return ok
}

func (b *Bot) handleCommand(ctx context.Context, user *domain.User, ev Event) {
	switch ev.Command {
	case "start":
		b.sendWithKeyboard(user.ChatID, msgWelcome, menuKeyboard())
	case "help":
		b.sendText(user.ChatID, msgWelcome)
	case "quiz":
		b.startCycle(ctx, user)
	case "next":
		b.advance(ctx, user)
	case "stats":
		b.sendStats(ctx, user)
	case "export":
		b.sendWithKeyboard(user.ChatID, msgChooseExport, exportKeyboard())
	case "reset":
		b.sendWithKeyboard(user.ChatID, msgResetConfirm, resetConfirmKeyboard())
	case "stop":
		b.setActive(ctx, user, false)
	case "resume":
		b.setActive(ctx, user, true)
	default:
		b.sendText(user.ChatID, msgUnknownCommand)
	}
}

func (b *Bot) handleCallback(ctx context.Context, user *domain.User, ev Event) {
	// Acknowledge the button press so the client stops its spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(ev.CallbackID, "")); err != nil {
		b.logger.Warn("failed to answer callback query",
			slog.String("error", err.Error()))
	}

	if questionID, ok := parsePrefixedCallback(ev.CallbackData, callbackHintPrefix); ok {
		b.requestHint(ctx, user, questionID)
		return
	}
	if questionID, ok := parsePrefixedCallback(ev.CallbackData, callbackEditPrefix); ok {
		b.reopenAnswer(ctx, user, questionID)
		return
	}

	switch ev.CallbackData {
	case callbackQuiz:
		b.startCycle(ctx, user)
	case callbackNext:
		b.advance(ctx, user)
	case callbackMenu:
		if err := b.intake.CancelAwaiting(ctx, user.ID); err != nil {
			b.logger.Error("failed to cancel awaited question",
				slog.Int64("user_id", user.ID),
				slog.String("error", err.Error()))
		}
		b.sendWithKeyboard(user.ChatID, msgMenu, menuKeyboard())
	case callbackStats:
		b.sendStats(ctx, user)
	case callbackExportMarkdown:
		b.sendExport(ctx, user, "answers.md", b.export.Markdown)
	case callbackExportCSV:
		b.sendExport(ctx, user, "answers.csv", b.export.CSV)
	case callbackReset:
		b.sendWithKeyboard(user.ChatID, msgResetConfirm, resetConfirmKeyboard())
	case callbackResetConfirm:
		b.resetProgress(ctx, user)
	default:
		b.logger.Warn("unknown callback data",
			slog.String("data", ev.CallbackData))
	}
}

func (b *Bot) handleAnswer(ctx context.Context, user *domain.User, text string) {
	result, err := b.intake.SubmitAnswer(ctx, user, text)
	if err != nil {
		b.logger.Error("failed to submit answer",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()))
		return
	}

	switch result.Outcome {
	case intake.OutcomeNothingAwaited:
		b.sendText(user.ChatID, msgNothingAwaited)
	case intake.OutcomeEmpty:
		b.sendText(user.ChatID, msgEmptyAnswer)
	case intake.OutcomeRecorded:
		b.sendWithKeyboard(user.ChatID, msgAnswerSaved, answeredKeyboard(result.QuestionID))
		b.submitFeedbackTask(ctx, user, result.QuestionID)
		// The cycle flows question to question on its own; the user only
		// ever types answers.
		b.advance(ctx, user)
	}
}

func (b *Bot) startCycle(ctx context.Context, user *domain.User) {
	err := b.delivery.StartCycle(ctx, user)
	if err == nil {
		return
	}
	if errors.Is(err, delivery.ErrNoQuestionsLeft) {
		b.sendText(user.ChatID, msgNoQuestionsLeft)
		return
	}
	b.logger.Error("failed to start cycle",
		slog.Int64("user_id", user.ID),
		slog.String("error", err.Error()))
}

func (b *Bot) advance(ctx context.Context, user *domain.User) {
	err := b.delivery.Advance(ctx, user)
	if err == nil {
		return
	}
	if errors.Is(err, delivery.ErrQueueEmpty) {
		b.sendText(user.ChatID, msgQueueEmpty)
		return
	}
	b.logger.Error("failed to advance queue",
		slog.Int64("user_id", user.ID),
		slog.String("error", err.Error()))
}

func (b *Bot) requestHint(ctx context.Context, user *domain.User, questionID int64) {
	t, err := b.tasks.NewHint(user.ID, questionID, user.ChatID)
	if err != nil {
		b.logger.Error("failed to build hint task", slog.String("error", err.Error()))
		return
	}
	if err := b.runner.Submit(ctx, t); err != nil {
		b.logger.Error("failed to submit hint task", slog.String("error", err.Error()))
		b.sendText(user.ChatID, msgGenerationUnavailable)
		return
	}
	b.sendText(user.ChatID, msgHintPending)
}

func (b *Bot) submitFeedbackTask(ctx context.Context, user *domain.User, questionID int64) {
	t, err := b.tasks.NewFeedback(user.ID, questionID, user.ChatID)
	if err != nil {
		b.logger.Error("failed to build feedback task", slog.String("error", err.Error()))
		return
	}
	if err := b.runner.Submit(ctx, t); err != nil {
		b.logger.Error("failed to submit feedback task", slog.String("error", err.Error()))
	}
}

func (b *Bot) reopenAnswer(ctx context.Context, user *domain.User, questionID int64) {
	if err := b.intake.ReopenAnswer(ctx, user.ID, questionID); err != nil {
		b.logger.Error("failed to reopen answer",
			slog.Int64("user_id", user.ID),
			slog.Int64("question_id", questionID),
			slog.String("error", err.Error()))
		return
	}
	b.sendText(user.ChatID, msgReopened)
}

func (b *Bot) sendStats(ctx context.Context, user *domain.User) {
	stats, err := b.history.Stats(ctx, user.ID)
	if err != nil {
		b.logger.Error("failed to load stats",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()))
		return
	}

	text := fmt.Sprintf(
		"Your progress:\n\nAnswered: %d of %d\nSent, not yet answered: %d\nRemaining: %d",
		stats.Answered, stats.TotalQuestions, stats.Sent, stats.Remaining,
	)
	b.sendWithKeyboard(user.ChatID, text, menuKeyboard())
}

func (b *Bot) sendExport(
	ctx context.Context,
	user *domain.User,
	filename string,
	render func(ctx context.Context, userID int64) ([]byte, bool, error),
) {
	data, ok, err := render(ctx, user.ID)
	if err != nil {
		b.logger.Error("failed to render export",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()))
		return
	}
	if !ok {
		b.sendText(user.ChatID, msgNothingToExport)
		return
	}

	doc := tgbotapi.NewDocument(user.ChatID, tgbotapi.FileBytes{
		Name:  filename,
		Bytes: data,
	})
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("failed to send export document",
			slog.Int64("chat_id", user.ChatID),
			slog.String("error", err.Error()))
	}
}

// setActive flips the user's daily broadcast subscription.
func (b *Bot) setActive(ctx context.Context, user *domain.User, active bool) {
	if err := b.users.SetActive(ctx, user.ID, active); err != nil {
		b.logger.Error("failed to update subscription",
			slog.Int64("user_id", user.ID),
			slog.Bool("active", active),
			slog.String("error", err.Error()))
		return
	}
	if active {
		b.sendText(user.ChatID, msgResumed)
	} else {
		b.sendText(user.ChatID, msgStopped)
	}
}

func (b *Bot) resetProgress(ctx context.Context, user *domain.User) {
	if err := b.history.Reset(ctx, user.ID); err != nil {
		b.logger.Error("failed to reset progress",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()))
		return
	}
	b.sendWithKeyboard(user.ChatID, msgResetDone, menuKeyboard())
}

// SendQuestion implements delivery.Messenger.
func (b *Bot) SendQuestion(ctx context.Context, chatID int64, question domain.Question) error {
	text := fmt.Sprintf("Question (difficulty %d/9):\n\n%s", question.Difficulty, question.Text)
	return b.send(chatID, text, questionKeyboard(question.ID))
}

// SendHint implements task.Notifier.
func (b *Bot) SendHint(ctx context.Context, chatID int64, question domain.Question, hint string) error {
	return b.send(chatID, fmt.Sprintf("Hint:\n\n%s", hint), questionKeyboard(question.ID))
}

// SendFeedback implements task.Notifier.
func (b *Bot) SendFeedback(ctx context.Context, chatID int64, question domain.Question, feedback string) error {
	return b.send(chatID, fmt.Sprintf("Feedback on \"%s\":\n\n%s", truncate(question.Text, 80), feedback), nil)
}

// SendGenerationUnavailable implements task.Notifier.
func (b *Bot) SendGenerationUnavailable(ctx context.Context, chatID int64) error {
	return b.send(chatID, msgGenerationUnavailable, nil)
}

func (b *Bot) send(chatID int64, text string, keyboard any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) {
	if err := b.send(chatID, text, nil); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	if err := b.send(chatID, text, keyboard); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
