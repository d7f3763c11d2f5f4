package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// TicketRecord is a support ticket bound to a dedicated channel.
// Closing is terminal; the record is kept after the channel is gone.
type TicketRecord struct {
	Number    uint64        `json:"id"`
	OwnerID   snowflake.ID  `json:"user"`
	GuildID   snowflake.ID  `json:"guild"`
	ChannelID snowflake.ID  `json:"channel"`
	Reason    string        `json:"reason"`
	CreatedAt time.Time     `json:"createdAt"`
	Closed    bool          `json:"closed"`
	ClosedBy  *snowflake.ID `json:"closedBy,omitempty"`
	ClosedAt  *time.Time    `json:"closedAt,omitempty"`
}
