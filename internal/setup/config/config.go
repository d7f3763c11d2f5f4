package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robalyx/keeper/internal/storage/types"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrInvalidGuildOverride  = errors.New("automod override key is not a guild ID")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v1.0.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig `koanf:"common"`
	Bot    BotConfig    `koanf:"bot"`
}

// CommonConfig contains configuration shared by every subcommand.
type CommonConfig struct {
	// Version of the common config.
	Version int     `koanf:"version"`
	Debug   Debug   `koanf:"debug"`
	Storage Storage `koanf:"storage"`
	Backup  Backup  `koanf:"backup"`
	Redis   Redis   `koanf:"redis"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Storage contains document store configuration.
type Storage struct {
	// Path of the JSON document.
	Path string `koanf:"path"`
}

// Backup contains snapshot configuration.
type Backup struct {
	// Hours between scheduled backups (0 disables the scheduler).
	IntervalHours int `koanf:"interval_hours"`
	// Directory for file backups (empty disables file backups).
	Directory string `koanf:"directory"`
	// Number of backups kept per sink.
	Keep int `koanf:"keep"`
	// Also store backups in Redis.
	Redis bool `koanf:"redis"`
	// Key prefix for Redis backups.
	RedisPrefix string `koanf:"redis_prefix"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
	// Disable client-side caching for servers without CLIENT TRACKING.
	DisableCache bool `koanf:"disable_cache"`
}

// BotConfig contains Discord bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version    int        `koanf:"version"`
	Discord    Discord    `koanf:"discord"`
	Leveling   Leveling   `koanf:"leveling"`
	Economy    Economy    `koanf:"economy"`
	Moderation Moderation `koanf:"moderation"`
	AutoMod    AutoMod    `koanf:"automod"`
	Tickets    Tickets    `koanf:"tickets"`
	Members    Members    `koanf:"members"`
}

// Discord contains Discord bot configuration.
type Discord struct {
	// Bot token; BOT_TOKEN in the environment takes precedence.
	Token string `koanf:"token"`
	// Default command prefix.
	Prefix string `koanf:"prefix"`
	// Presence text shown under the bot's name.
	Activity string `koanf:"activity"`
}

// Leveling contains XP configuration.
type Leveling struct {
	MinXP int `koanf:"min_xp"`
	MaxXP int `koanf:"max_xp"`
	// Seconds between two XP grants for one member.
	CooldownSeconds int `koanf:"cooldown_seconds"`
	// Maximum members tracked by the cooldown gate.
	MaxTrackedMembers int `koanf:"max_tracked_members"`
	// Channel name for level-up announcements (empty uses the message channel).
	AnnounceChannel string `koanf:"announce_channel"`
	// Announcement template with {user} and {level} placeholders.
	LevelUpMessage string `koanf:"level_up_message"`
	// Grant the roles listed in the document's levelRoles.
	RewardRoles bool `koanf:"reward_roles"`
	// Seconds between cooldown sweeps.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`
}

// Economy contains economy configuration.
type Economy struct {
	DailyReward  int64 `koanf:"daily_reward"`
	DailyHours   int   `koanf:"daily_hours"`
	WeeklyReward int64 `koanf:"weekly_reward"`
	WeeklyHours  int   `koanf:"weekly_hours"`
}

// Moderation contains moderation configuration.
type Moderation struct {
	// Channel name for moderation logs.
	LogChannel string `koanf:"log_channel"`
	// Mute duration used when none is given.
	DefaultMute string `koanf:"default_mute"`
}

// AutoMod contains the default automod policy and per-guild overrides keyed by guild ID.
type AutoMod struct {
	types.AutoModPolicy `koanf:",squash"`

	Guilds map[string]types.AutoModPolicy `koanf:"guilds"`
	// Seconds between spam window sweeps.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`
}

// Tickets contains ticket configuration.
type Tickets struct {
	// Category that holds ticket channels.
	Category string `koanf:"category"`
	// Role that can see every ticket.
	StaffRole string `koanf:"staff_role"`
	// Seconds between closing a ticket and deleting its channel.
	DeleteDelaySeconds int `koanf:"delete_delay_seconds"`
}

// Members contains membership event configuration.
type Members struct {
	// Role granted to every member on join.
	AutoRole string `koanf:"auto_role"`
	// Channel name for welcome messages.
	WelcomeChannel string `koanf:"welcome_channel"`
	// Channel name for goodbye messages.
	GoodbyeChannel string `koanf:"goodbye_channel"`
}

// Default returns the configuration used for values missing from the files.
func Default() Config {
	return Config{
		Common: CommonConfig{
			Debug:   Debug{LogLevel: "info", MaxLogsToKeep: 10, MaxLogLines: 100_000},
			Storage: Storage{Path: "database.json"},
			Backup: Backup{
				IntervalHours: 24,
				Directory:     "backups",
				Keep:          7,
				RedisPrefix:   "keeper:backup",
			},
			Redis: Redis{Host: "localhost", Port: 6379},
		},
		Bot: BotConfig{
			Discord: Discord{Prefix: "!", Activity: "!help"},
			Leveling: Leveling{
				MinXP:                15,
				MaxXP:                25,
				CooldownSeconds:      60,
				MaxTrackedMembers:    100_000,
				LevelUpMessage:       "🎉 {user}, congratulations! You reached **Level {level}**!",
				RewardRoles:          true,
				SweepIntervalSeconds: 300,
			},
			Economy: Economy{DailyReward: 100, DailyHours: 24, WeeklyReward: 500, WeeklyHours: 168},
			Moderation: Moderation{
				LogChannel:  "mod-logs",
				DefaultMute: "10m",
			},
			AutoMod: AutoMod{
				AutoModPolicy:        types.DefaultAutoModPolicy(),
				SweepIntervalSeconds: 60,
			},
			Tickets: Tickets{Category: "Tickets", StaffRole: "Staff", DeleteDelaySeconds: 5},
			Members: Members{AutoRole: "Member", WelcomeChannel: "welcome", GoodbyeChannel: "goodbye"},
		},
	}
}

// LoadConfig loads the configuration from the config search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return LoadFrom([]string{
		".keeper",
		homeDir + "/.keeper/config",
		"/etc/keeper/config",
		"/app/config",
		"config",
		".",
	})
}

// LoadFrom loads common.toml and bot.toml from the first path containing each.
func LoadFrom(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string

	configFiles := []string{"common", "bot"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.applyDefaults(k)

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// applyDefaults fills settings the files leave unset.
func (c *Config) applyDefaults(k *koanf.Koanf) {
	d := Default()

	setDefault(&c.Common.Debug.LogLevel, d.Common.Debug.LogLevel)
	setDefault(&c.Common.Debug.MaxLogsToKeep, d.Common.Debug.MaxLogsToKeep)
	setDefault(&c.Common.Debug.MaxLogLines, d.Common.Debug.MaxLogLines)
	setDefault(&c.Common.Storage.Path, d.Common.Storage.Path)
	setDefault(&c.Common.Backup.Keep, d.Common.Backup.Keep)
	setDefault(&c.Common.Backup.RedisPrefix, d.Common.Backup.RedisPrefix)
	setDefault(&c.Common.Redis.Host, d.Common.Redis.Host)
	setDefault(&c.Common.Redis.Port, d.Common.Redis.Port)

	if !k.Exists("common.backup.interval_hours") {
		c.Common.Backup.IntervalHours = d.Common.Backup.IntervalHours
	}
	if !k.Exists("common.backup.directory") {
		c.Common.Backup.Directory = d.Common.Backup.Directory
	}

	setDefault(&c.Bot.Discord.Prefix, d.Bot.Discord.Prefix)
	setDefault(&c.Bot.Discord.Activity, d.Bot.Discord.Activity)

	setDefault(&c.Bot.Leveling.MinXP, d.Bot.Leveling.MinXP)
	setDefault(&c.Bot.Leveling.MaxXP, d.Bot.Leveling.MaxXP)
	setDefault(&c.Bot.Leveling.CooldownSeconds, d.Bot.Leveling.CooldownSeconds)
	setDefault(&c.Bot.Leveling.MaxTrackedMembers, d.Bot.Leveling.MaxTrackedMembers)
	setDefault(&c.Bot.Leveling.LevelUpMessage, d.Bot.Leveling.LevelUpMessage)
	setDefault(&c.Bot.Leveling.SweepIntervalSeconds, d.Bot.Leveling.SweepIntervalSeconds)
	if !k.Exists("bot.leveling.reward_roles") {
		c.Bot.Leveling.RewardRoles = d.Bot.Leveling.RewardRoles
	}

	setDefault(&c.Bot.Economy.DailyReward, d.Bot.Economy.DailyReward)
	setDefault(&c.Bot.Economy.DailyHours, d.Bot.Economy.DailyHours)
	setDefault(&c.Bot.Economy.WeeklyReward, d.Bot.Economy.WeeklyReward)
	setDefault(&c.Bot.Economy.WeeklyHours, d.Bot.Economy.WeeklyHours)

	setDefault(&c.Bot.Moderation.LogChannel, d.Bot.Moderation.LogChannel)
	setDefault(&c.Bot.Moderation.DefaultMute, d.Bot.Moderation.DefaultMute)

	// A policy given in the file is taken as a whole.
	if !k.Exists("bot.automod.enabled") {
		c.Bot.AutoMod.AutoModPolicy = d.Bot.AutoMod.AutoModPolicy
	}
	setDefault(&c.Bot.AutoMod.SweepIntervalSeconds, d.Bot.AutoMod.SweepIntervalSeconds)

	setDefault(&c.Bot.Tickets.Category, d.Bot.Tickets.Category)
	setDefault(&c.Bot.Tickets.DeleteDelaySeconds, d.Bot.Tickets.DeleteDelaySeconds)
	if !k.Exists("bot.tickets.staff_role") {
		c.Bot.Tickets.StaffRole = d.Bot.Tickets.StaffRole
	}

	if !k.Exists("bot.members") {
		c.Bot.Members = d.Bot.Members
	}
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// GuildOverrides converts the per-guild automod overrides to guild IDs.
func (a *AutoMod) GuildOverrides() (map[snowflake.ID]types.AutoModPolicy, error) {
	overrides := make(map[snowflake.ID]types.AutoModPolicy, len(a.Guilds))

	for key, policy := range a.Guilds {
		guildID, err := snowflake.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidGuildOverride, key)
		}
		overrides[guildID] = policy
	}

	return overrides, nil
}

// Seconds converts a configured number of seconds to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Hours converts a configured number of hours to a duration.
func Hours(n int) time.Duration {
	return time.Duration(n) * time.Hour
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/keeper/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
