package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Jovzzqez008/sol-bot/internal/config"
	"github.com/Jovzzqez008/sol-bot/internal/monitor"
	"github.com/Jovzzqez008/sol-bot/internal/observability"
	"github.com/Jovzzqez008/sol-bot/internal/storage/memory"
)

var cmdNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newCommandHandler(t *testing.T) (*CommandHandler, *memory.MintRegistry, *observability.Stats) {
	t.Helper()

	store := memory.NewMintRegistry("owner", time.Hour)
	stats := observability.NewStats(nil)
	h := NewCommandHandler(CommandOptions{
		Stats:         stats,
		Active:        func() int { return 7 },
		OpenPositions: func() int { return 2 },
		Params:        store,
		Mode:          "dry-run",
		Clock:         func() time.Time { return cmdNow },
	})
	return h, store, stats
}

func TestCommandHandler_Status(t *testing.T) {
	h, _, stats := newCommandHandler(t)
	stats.IncDetected()
	stats.IncDetected()
	stats.IncMonitored()

	reply := h.Handle(context.Background(), "status", "")

	assert.Contains(t, reply, "Mode: dry-run\n")
	assert.Contains(t, reply, "Active monitors: 7 | Open positions: 2")
	assert.Contains(t, reply, "Detected 2 | Monitored 1 | Alerts 0")
	assert.NotContains(t, reply, "silenced")
}

func TestCommandHandler_PauseResume(t *testing.T) {
	h, store, _ := newCommandHandler(t)
	ctx := context.Background()
	params := monitor.NewParams(store)

	assert.Equal(t, "Dry-run buys paused", h.Handle(ctx, "pause", ""))
	paused, err := params.DryRunPaused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)
	assert.Contains(t, h.Handle(ctx, "status", ""), "Mode: dry-run (paused)")

	assert.Equal(t, "Dry-run buys resumed", h.Handle(ctx, "RESUME", ""))
	paused, err = params.DryRunPaused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)
}

func TestCommandHandler_Silence(t *testing.T) {
	h, store, _ := newCommandHandler(t)
	ctx := context.Background()
	params := monitor.NewParams(store)

	reply := h.Handle(ctx, "silence", "30m")
	assert.Equal(t, "Alerts silenced until 2026-03-01T12:30:00Z", reply)

	silenced, err := params.SilencedAt(ctx, cmdNow.Add(10*time.Minute))
	require.NoError(t, err)
	assert.True(t, silenced)
	assert.Contains(t, h.Handle(ctx, "status", ""), "Alerts silenced")

	assert.Contains(t, h.Handle(ctx, "silence", "soon"), "Usage")

	assert.Equal(t, "Alerts unsilenced", h.Handle(ctx, "unsilence", ""))
	silenced, err = params.SilencedAt(ctx, cmdNow)
	require.NoError(t, err)
	assert.False(t, silenced)
}

func TestCommandHandler_UnknownShowsHelp(t *testing.T) {
	h, _, _ := newCommandHandler(t)
	assert.Equal(t, commandHelp, h.Handle(context.Background(), "start", ""))
}

// fakeUpdater feeds scripted updates to the command loop.
type fakeUpdater struct {
	ch      chan tgbotapi.Update
	mu      sync.Mutex
	stopped bool
}

func (f *fakeUpdater) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.ch
}

func (f *fakeUpdater) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func commandUpdate(chatID int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i > 0 {
		cmdLen = i
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

func TestTelegramNotifier_RunCommands(t *testing.T) {
	h, store, _ := newCommandHandler(t)
	bot := &fakeTelegram{}
	updates := &fakeUpdater{ch: make(chan tgbotapi.Update, 4)}
	n := &TelegramNotifier{logger: zaptest.NewLogger(t), bot: bot, updates: updates, chatID: 42}

	updates.ch <- commandUpdate(99, "/pause")
	updates.ch <- tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}, Text: "hello"}}
	updates.ch <- commandUpdate(42, "/status")
	updates.ch <- commandUpdate(42, "/silence 1h")
	close(updates.ch)

	require.NoError(t, n.RunCommands(context.Background(), h))

	require.Len(t, bot.msgs, 2, "other chats and plain messages are ignored")
	assert.Contains(t, bot.msgs[0].Text, "Mode: dry-run\n")
	assert.Equal(t, int64(42), bot.msgs[0].ChatID)
	assert.Contains(t, bot.msgs[1].Text, "Alerts silenced until")

	paused, err := monitor.NewParams(store).DryRunPaused(context.Background())
	require.NoError(t, err)
	assert.False(t, paused, "a command from another chat must not change state")
	assert.True(t, updates.stopped)
}

func TestTelegramNotifier_RunCommandsDisabled(t *testing.T) {
	n := NewTelegramNotifier(config.TelegramConfig{}, zaptest.NewLogger(t))
	h, _, _ := newCommandHandler(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.NoError(t, n.RunCommands(ctx, h))
}
