package events

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/robalyx/keeper/internal/ticket"
	"go.uber.org/zap"
)

// Reaction is a reaction added to or removed from a message.
type Reaction struct {
	GuildID   snowflake.ID
	MessageID snowflake.ID
	UserID    snowflake.ID
	Emoji     string
	Bot       bool
}

// OnReactionAdd grants the role bound to the reaction.
func (r *Router) OnReactionAdd(ctx context.Context, reaction Reaction) {
	r.applyReactionRole(ctx, reaction, true)
}

// OnReactionRemove revokes the role bound to the reaction.
func (r *Router) OnReactionRemove(ctx context.Context, reaction Reaction) {
	r.applyReactionRole(ctx, reaction, false)
}

func (r *Router) applyReactionRole(ctx context.Context, reaction Reaction, add bool) {
	if reaction.Bot || reaction.GuildID == 0 {
		return
	}

	roleID, ok := r.settings.ReactionRole(reaction.MessageID, reaction.Emoji)
	if !ok {
		return
	}

	var err error
	if add {
		err = r.adapter.AddRole(ctx, reaction.GuildID, reaction.UserID, roleID)
	} else {
		err = r.adapter.RemoveRole(ctx, reaction.GuildID, reaction.UserID, roleID)
	}
	if err != nil {
		r.logger.Warn("Failed to apply reaction role",
			zap.Uint64("userID", uint64(reaction.UserID)),
			zap.Uint64("roleID", uint64(roleID)),
			zap.Bool("add", add),
			zap.Error(err))
	}
}

// OnButton handles a component click and returns the ephemeral reply.
// The second result is false for buttons the bot does not own.
func (r *Router) OnButton(ctx context.Context, customID string, channelID snowflake.ID, user platform.User) (string, bool) {
	if customID != constants.CloseTicketButtonCustomID {
		return "", false
	}

	err := r.handlers.CloseTicket(ctx, channelID, user)
	switch {
	case err == nil:
		return "Closing ticket...", true
	case errors.Is(err, ticket.ErrNotFound):
		return "❌ This channel is not a ticket!", true
	case errors.Is(err, ticket.ErrAlreadyClosed):
		return "❌ This ticket is already closed!", true
	default:
		r.logger.Error("Failed to close ticket", zap.Uint64("channelID", uint64(channelID)), zap.Error(err))
		return constants.GenericErrorMessage, true
	}
}
