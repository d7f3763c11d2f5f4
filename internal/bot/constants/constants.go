package constants

import "time"

const (
	// Components.
	CloseTicketButtonCustomID = "close_ticket"

	// Embed colors.
	ColorBlurple = 0x5865F2
	ColorGreen   = 0x00FF00
	ColorRed     = 0xFF0000
	ColorGold    = 0xFFD700
	ColorOrange  = 0xFFA500
	ColorCoral   = 0xFF6B6B

	// Replies.
	GenericErrorMessage = "❌ Something went wrong. Please try again later."
	NotApplicable       = "N/A"
	UnknownUser         = "Unknown User"

	// LeaderboardSize is the number of members shown by the leaderboard.
	LeaderboardSize = 10
	// RankLookupSize is the number of members searched when computing a rank.
	RankLookupSize = 100
	// MaxPurge is the largest count accepted by the clear command.
	MaxPurge = 100
	// LeaderboardFetchConcurrency bounds concurrent user lookups for the leaderboard.
	LeaderboardFetchConcurrency = 5

	// NoticeLifetime is how long transient notices stay in the channel.
	NoticeLifetime = 5 * time.Second
	// PlatformCallTimeout bounds platform calls made outside a command context.
	PlatformCallTimeout = 10 * time.Second
)

// PollReactions are added to every poll message in order.
var PollReactions = []string{"✅", "❌", "🤷"}

// EightBallAnswers are the possible 8ball answers.
var EightBallAnswers = []string{
	"Yes, definitely!", "No!", "Maybe.", "Ask again.",
	"Could be.", "Looks like yes.", "No way!", "Definitely not!",
	"Absolutely!", "Very doubtful", "Ask again later", "Outlook good",
}
