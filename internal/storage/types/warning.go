package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Warning is a moderator-issued warning against a member.
type Warning struct {
	ID          int64        `json:"id"`
	ModeratorID snowflake.ID `json:"moderator"`
	Reason      string       `json:"reason"`
	Timestamp   time.Time    `json:"timestamp"`
}
