package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Jovzzqez008/sol-bot/internal/config"
	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

func testAlert() (domain.Snapshot, domain.Alert) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := domain.Snapshot{
		Mint:             "So11111111111111111111111111111111111111112",
		Symbol:           "PEPE<3",
		Name:             "Pepe & Friends",
		InitialPrice:     0.00001,
		CurrentPrice:     0.000015,
		MaxPrice:         0.000016,
		CurrentMarketCap: 15000,
		StartTime:        t0,
		TakenAt:          t0.Add(2 * time.Minute),
	}
	a := domain.Alert{
		RuleName:         "FAST_PUMP",
		GainPercent:      50,
		TimeElapsed:      2 * time.Minute,
		PriceAtAlert:     0.000015,
		MarketCapAtAlert: 15000,
		Slope:            25,
	}
	return s, a
}

type recordingNotifier struct {
	mu    sync.Mutex
	sends int
	texts []string
	err   error
}

func (r *recordingNotifier) Send(context.Context, domain.Snapshot, domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends++
	return r.err
}

func (r *recordingNotifier) SendText(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.err
}

func TestMultiNotifier_FanOutAndJoinErrors(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("boom")}
	m := NewMultiNotifier(ok, nil, failing)
	require.Equal(t, 2, m.Len())

	s, a := testAlert()
	err := m.Send(context.Background(), s, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, ok.sends, "failure of one notifier must not stop the others")
	assert.Equal(t, 1, failing.sends)

	require.Error(t, m.SendText(context.Background(), "hello"))
	assert.Equal(t, []string{"hello"}, ok.texts)
}

func TestMultiNotifier_Empty(t *testing.T) {
	m := NewMultiNotifier()
	s, a := testAlert()
	assert.NoError(t, m.Send(context.Background(), s, a))
	assert.NoError(t, m.SendText(context.Background(), "x"))
}

func TestDiscordNotifier_DisabledWithoutToken(t *testing.T) {
	n := NewDiscordNotifier(config.DiscordConfig{ChannelID: "chan"}, zaptest.NewLogger(t))
	assert.False(t, n.Enabled())

	s, a := testAlert()
	assert.NoError(t, n.Send(context.Background(), s, a))
	assert.NoError(t, n.SendText(context.Background(), "x"))
	assert.NoError(t, n.Close())
}

type fakeDiscord struct {
	channel string
	embed   *discordgo.MessageEmbed
	content string
	err     error
}

func (f *fakeDiscord) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.content = content
	return &discordgo.Message{}, f.err
}

func (f *fakeDiscord) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.embed = embed
	return &discordgo.Message{}, f.err
}

func TestDiscordNotifier_SendEmbed(t *testing.T) {
	fake := &fakeDiscord{}
	n := &DiscordNotifier{logger: zaptest.NewLogger(t), session: fake, channelID: "chan-1"}

	s, a := testAlert()
	require.NoError(t, n.Send(context.Background(), s, a))

	require.NotNil(t, fake.embed)
	assert.Equal(t, "chan-1", fake.channel)
	assert.Contains(t, fake.embed.Title, "Fast Pump")
	assert.Contains(t, fake.embed.Title, s.Symbol)
	assert.Equal(t, 0xF1C40F, fake.embed.Color)
	assert.Equal(t, "+50.0%", fake.embed.Fields[0].Value)
	assert.Equal(t, "$15.0K", fake.embed.Fields[4].Value)
}

func TestDiscordNotifier_SendError(t *testing.T) {
	fake := &fakeDiscord{err: errors.New("rate limited")}
	n := &DiscordNotifier{logger: zaptest.NewLogger(t), session: fake, channelID: "chan-1"}

	s, a := testAlert()
	err := n.Send(context.Background(), s, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestTelegramNotifier_DisabledWithoutToken(t *testing.T) {
	n := NewTelegramNotifier(config.TelegramConfig{ChatID: 42}, zaptest.NewLogger(t))
	assert.False(t, n.Enabled())

	s, a := testAlert()
	assert.NoError(t, n.Send(context.Background(), s, a))
}

type fakeTelegram struct {
	mu   sync.Mutex
	msgs []tgbotapi.MessageConfig
	wait chan struct{}
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.wait != nil {
		<-f.wait
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestTelegramNotifier_SendHTML(t *testing.T) {
	fake := &fakeTelegram{}
	n := &TelegramNotifier{logger: zaptest.NewLogger(t), bot: fake, chatID: 42}

	s, a := testAlert()
	require.NoError(t, n.Send(context.Background(), s, a))

	require.Len(t, fake.msgs, 1)
	msg := fake.msgs[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "PEPE&lt;3")
	assert.Contains(t, msg.Text, "Pepe &amp; Friends")
	assert.Contains(t, msg.Text, "+50.0%")
	assert.True(t, strings.Contains(msg.Text, "pump.fun/"+s.Mint))
}

func TestTelegramNotifier_ContextCancel(t *testing.T) {
	fake := &fakeTelegram{wait: make(chan struct{})}
	defer close(fake.wait)
	n := &TelegramNotifier{logger: zaptest.NewLogger(t), bot: fake, chatID: 42}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := n.SendText(ctx, "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$1.50M", formatUSD(1_500_000))
	assert.Equal(t, "$3.0K", formatUSD(3000))
	assert.Equal(t, "$12.34", formatUSD(12.34))
}
