package gateway

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordPublisher posts notifications to Discord channels over the REST API.
// It never opens a gateway websocket.
type DiscordPublisher struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewDiscordPublisher creates a publisher authenticated as the bot owning token.
func NewDiscordPublisher(token string, logger *zap.Logger) (*DiscordPublisher, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordPublisher{session: session, logger: logger}, nil
}

// Publish sends text to channelID.
func (p *DiscordPublisher) Publish(ctx context.Context, channelID, text string) error {
	msg, err := p.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	p.logger.Debug("notification published", zap.String("channel_id", channelID), zap.String("message_id", msg.ID))
	return nil
}
