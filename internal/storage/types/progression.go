package types

// ProgressionRecord tracks XP and level for one member of one guild.
// XP is the progress inside the current level; TotalXP never decreases.
type ProgressionRecord struct {
	XP       uint64 `json:"xp"`
	Level    uint64 `json:"level"`
	Messages uint64 `json:"messages"`
	TotalXP  uint64 `json:"totalXP"`
}

// NewProgressionRecord returns the record of a member who never earned XP.
func NewProgressionRecord() ProgressionRecord {
	return ProgressionRecord{Level: 1}
}
