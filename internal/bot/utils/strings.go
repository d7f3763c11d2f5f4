package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// TruncateString truncates a string to a maximum number of runes.
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) > maxLength {
		return string(runes[:maxLength-3]) + "..."
	}
	return s
}

// NormalizeString sanitizes text by replacing newlines with spaces and removing backticks
// to prevent Discord markdown formatting issues.
func NormalizeString(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "`", "")
}

// RelativeTimestamp renders t as a Discord relative timestamp.
func RelativeTimestamp(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// YesNo renders a boolean as a check or cross.
func YesNo(v bool) string {
	if v {
		return "✅ Yes"
	}
	return "❌ No"
}

// Medal returns the leaderboard marker for a zero-based position.
func Medal(i int) string {
	switch i {
	case 0:
		return "🥇"
	case 1:
		return "🥈"
	case 2:
		return "🥉"
	default:
		return fmt.Sprintf("**%d.**", i+1)
	}
}

// ParseUserMention accepts <@id>, <@!id> or a bare ID.
func ParseUserMention(s string) (snowflake.ID, bool) {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "<@"), ">")
	s = strings.TrimPrefix(s, "!")
	return ParseID(s)
}

// ParseRoleMention accepts <@&id> or a bare ID.
func ParseRoleMention(s string) (snowflake.ID, bool) {
	return ParseID(strings.TrimSuffix(strings.TrimPrefix(s, "<@&"), ">"))
}

// ParseChannelMention accepts <#id> or a bare ID.
func ParseChannelMention(s string) (snowflake.ID, bool) {
	return ParseID(strings.TrimSuffix(strings.TrimPrefix(s, "<#"), ">"))
}

// ParseID parses a bare snowflake ID.
func ParseID(s string) (snowflake.ID, bool) {
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return 0, false
	}

	id, err := snowflake.Parse(s)
	if err != nil || id == 0 {
		return 0, false
	}

	return id, true
}
