package types

// AutoModPolicy configures the automatic moderation rules.
type AutoModPolicy struct {
	Enabled          bool     `json:"enabled"          koanf:"enabled"`
	AntiSpam         bool     `json:"antiSpam"         koanf:"anti_spam"`
	AntiLink         bool     `json:"antiLink"         koanf:"anti_link"`
	AntiInvite       bool     `json:"antiInvite"       koanf:"anti_invite"`
	BadWords         []string `json:"badWords"         koanf:"bad_words"`
	WhitelistedLinks []string `json:"whitelistedLinks" koanf:"whitelisted_links"`
	MaxMentions      int      `json:"maxMentions"      koanf:"max_mentions"`
	MaxMessages      int      `json:"maxMessages"      koanf:"max_messages"`
	TimeWindowMS     int64    `json:"timeWindow"       koanf:"time_window_ms"`
}

// DefaultAutoModPolicy returns the policy used when nothing is configured.
func DefaultAutoModPolicy() AutoModPolicy {
	return AutoModPolicy{
		Enabled:          true,
		AntiSpam:         true,
		AntiLink:         false,
		AntiInvite:       true,
		BadWords:         []string{"toxic", "hate", "spam"},
		WhitelistedLinks: []string{"youtube.com", "discord.gg", "github.com"},
		MaxMentions:      5,
		MaxMessages:      5,
		TimeWindowMS:     5000,
	}
}
