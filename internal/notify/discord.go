package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/config"
	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

// discordSender is the subset of *discordgo.Session used for delivery.
type discordSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts alerts as embeds to a Discord channel.
// Without a bot token it is disabled and every call is a no-op.
type DiscordNotifier struct {
	logger    *zap.Logger
	session   discordSender
	closer    func() error
	channelID string
}

// NewDiscordNotifier creates a Discord notifier from config.
func NewDiscordNotifier(cfg config.DiscordConfig, logger *zap.Logger) *DiscordNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}

	n := &DiscordNotifier{
		logger:    logger,
		channelID: cfg.ChannelID,
	}

	if cfg.BotToken == "" || cfg.ChannelID == "" {
		logger.Warn("DISCORD_BOT_TOKEN or DISCORD_CHANNEL_ID not set, Discord alerts disabled")
		return n
	}

	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		logger.Error("failed to create discord session", zap.Error(err))
		return n
	}

	logger.Info("discord notifier initialized", zap.String("channelID", cfg.ChannelID))
	n.session = session
	n.closer = session.Close
	return n
}

// Enabled reports whether the notifier has a session.
func (n *DiscordNotifier) Enabled() bool {
	return n.session != nil
}

// Send posts an embed for the alert.
func (n *DiscordNotifier) Send(ctx context.Context, s domain.Snapshot, a domain.Alert) error {
	if n.session == nil {
		return nil
	}

	embed := buildAlertEmbed(s, a)
	if _, err := n.session.ChannelMessageSendEmbed(n.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord send embed: %w", err)
	}

	n.logger.Debug("sent discord alert",
		zap.String("mint", s.Mint),
		zap.String("rule", a.RuleName),
	)
	return nil
}

// SendText posts a plain message.
func (n *DiscordNotifier) SendText(ctx context.Context, text string) error {
	if n.session == nil {
		return nil
	}
	if _, err := n.session.ChannelMessageSend(n.channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord send message: %w", err)
	}
	return nil
}

// Close closes the Discord session.
func (n *DiscordNotifier) Close() error {
	if n.closer != nil {
		return n.closer()
	}
	return nil
}

func buildAlertEmbed(s domain.Snapshot, a domain.Alert) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Gain",
			Value:  fmt.Sprintf("%+.1f%%", a.GainPercent),
			Inline: true,
		},
		{
			Name:   "Elapsed",
			Value:  fmt.Sprintf("%.1f min", a.TimeElapsed.Minutes()),
			Inline: true,
		},
		{
			Name:   "Slope",
			Value:  fmt.Sprintf("%.1f%%/min", a.Slope),
			Inline: true,
		},
		{
			Name:   "Price",
			Value:  formatPrice(a.PriceAtAlert),
			Inline: true,
		},
		{
			Name:   "Market Cap",
			Value:  formatUSD(a.MarketCapAtAlert),
			Inline: true,
		},
		{
			Name:   "From Peak",
			Value:  fmt.Sprintf("%.1f%%", s.DrawdownPercent()),
			Inline: true,
		},
		{
			Name:  "Mint",
			Value: fmt.Sprintf("`%s`\n[pump.fun](%s%s) | [DexScreener](%s%s)", s.Mint, pumpFunURL, s.Mint, dexScreenerURL, s.Mint),
		},
	}

	ts := s.TakenAt
	if ts.IsZero() {
		ts = time.Now()
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s: %s", alertTitle(a.RuleName), s.Symbol),
		URL:         dexScreenerURL + s.Mint,
		Description: fmt.Sprintf("**%s** (%s)", s.Name, shortMint(s.Mint)),
		Color:       alertColor(a.GainPercent),
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "sol-bot",
		},
		Timestamp: ts.Format(time.RFC3339),
	}
}
