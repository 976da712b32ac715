package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/config"
	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

// telegramSender is the subset of *tgbotapi.BotAPI used for delivery.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// telegramUpdater is the long-polling half of *tgbotapi.BotAPI.
type telegramUpdater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramNotifier sends HTML-formatted alerts to a Telegram chat and
// answers operator commands from the same chat.
// Without a bot token it is disabled and every call is a no-op.
type TelegramNotifier struct {
	logger  *zap.Logger
	bot     telegramSender
	updates telegramUpdater
	chatID  int64
}

// NewTelegramNotifier creates a Telegram notifier from config.
// tgbotapi.NewBotAPI validates the token against the Bot API.
func NewTelegramNotifier(cfg config.TelegramConfig, logger *zap.Logger) *TelegramNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}

	n := &TelegramNotifier{
		logger: logger,
		chatID: cfg.ChatID,
	}

	if cfg.BotToken == "" || cfg.ChatID == 0 {
		logger.Warn("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set, Telegram alerts disabled")
		return n
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("failed to create telegram bot", zap.Error(err))
		return n
	}

	logger.Info("telegram notifier initialized",
		zap.String("bot", bot.Self.UserName),
		zap.Int64("chatID", cfg.ChatID),
	)
	n.bot = bot
	n.updates = bot
	return n
}

// Enabled reports whether the notifier has a bot client.
func (n *TelegramNotifier) Enabled() bool {
	return n.bot != nil
}

// Send posts the alert as an HTML message.
func (n *TelegramNotifier) Send(ctx context.Context, s domain.Snapshot, a domain.Alert) error {
	if n.bot == nil {
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, alertHTML(s, a))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if err := n.send(ctx, msg); err != nil {
		return fmt.Errorf("telegram send alert: %w", err)
	}
	n.logger.Debug("sent telegram alert",
		zap.String("mint", s.Mint),
		zap.String("rule", a.RuleName),
	)
	return nil
}

// SendText posts a plain message.
func (n *TelegramNotifier) SendText(ctx context.Context, text string) error {
	if n.bot == nil {
		return nil
	}
	if err := n.send(ctx, tgbotapi.NewMessage(n.chatID, text)); err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}
	return nil
}

// send runs the blocking Bot API call so a cancelled ctx returns promptly.
func (n *TelegramNotifier) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	done := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunCommands long-polls for commands posted in the configured chat and
// replies through handler until ctx is cancelled. Messages from other
// chats are ignored.
func (n *TelegramNotifier) RunCommands(ctx context.Context, handler *CommandHandler) error {
	if n.updates == nil || n.bot == nil {
		<-ctx.Done()
		return nil
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := n.updates.GetUpdatesChan(u)
	defer n.updates.StopReceivingUpdates()

	n.logger.Info("telegram command loop started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			msg := upd.Message
			if msg == nil || msg.Chat == nil || msg.Chat.ID != n.chatID || !msg.IsCommand() {
				continue
			}

			n.logger.Info("telegram command", zap.String("command", msg.Command()))
			reply := handler.Handle(ctx, msg.Command(), msg.CommandArguments())
			if err := n.SendText(ctx, reply); err != nil {
				n.logger.Warn("failed to answer telegram command", zap.String("command", msg.Command()), zap.Error(err))
			}
		}
	}
}
