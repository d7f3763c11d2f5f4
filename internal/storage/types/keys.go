package types

import (
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
)

// MemberKey encodes the composite (guild, user) key used by every per-member
// collection in the document.
func MemberKey(guildID, userID snowflake.ID) string {
	return guildID.String() + "-" + userID.String()
}

// GuildKeyPrefix returns the prefix shared by all member keys of a guild.
func GuildKeyPrefix(guildID snowflake.ID) string {
	return guildID.String() + "-"
}

// ParseMemberKey splits a member key back into guild and user IDs.
func ParseMemberKey(key string) (guildID, userID snowflake.ID, err error) {
	guildPart, userPart, ok := strings.Cut(key, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}

	if guildID, err = snowflake.Parse(guildPart); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}

	if userID, err = snowflake.Parse(userPart); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}

	return guildID, userID, nil
}
