package utils_test

import (
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/bot/utils"
	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{name: "short string", input: "hello", maxLength: 10, want: "hello"},
		{name: "long string", input: "hello world this is a long string", maxLength: 10, want: "hello w..."},
		{name: "exact length", input: "hello", maxLength: 5, want: "hello"},
		{name: "multibyte", input: "ééééééé", maxLength: 5, want: "éé..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.TruncateString(tt.input, tt.maxLength))
		})
	}
}

func TestNormalizeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "line one line two", utils.NormalizeString("line one\nline `two`"))
}

func TestRelativeTimestamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "never", utils.RelativeTimestamp(time.Time{}))
	assert.Equal(t, "<t:1700000000:R>", utils.RelativeTimestamp(time.Unix(1_700_000_000, 0)))
}

func TestMedal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "🥇", utils.Medal(0))
	assert.Equal(t, "🥉", utils.Medal(2))
	assert.Equal(t, "**4.**", utils.Medal(3))
}

func TestParseMentions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		parse func(string) (snowflake.ID, bool)
		input string
		want  snowflake.ID
		ok    bool
	}{
		{name: "user mention", parse: utils.ParseUserMention, input: "<@123>", want: 123, ok: true},
		{name: "nickname mention", parse: utils.ParseUserMention, input: "<@!123>", want: 123, ok: true},
		{name: "bare id", parse: utils.ParseUserMention, input: "456", want: 456, ok: true},
		{name: "role mention", parse: utils.ParseRoleMention, input: "<@&789>", want: 789, ok: true},
		{name: "channel mention", parse: utils.ParseChannelMention, input: "<#321>", want: 321, ok: true},
		{name: "garbage", parse: utils.ParseUserMention, input: "hello", ok: false},
		{name: "zero", parse: utils.ParseUserMention, input: "0", ok: false},
		{name: "role as user", parse: utils.ParseUserMention, input: "<@&789>", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := tt.parse(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
