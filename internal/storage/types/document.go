package types

// Document is the whole persisted state of the bot. Every mutation rewrites it.
type Document struct {
	Prefixes       map[string]string              `json:"prefixes"`
	Levels         OrderedMap[*ProgressionRecord] `json:"levels"`
	Warnings       map[string][]Warning           `json:"warnings"`
	Economy        map[string]*EconomyRecord      `json:"economy"`
	ReactionRoles  map[string]map[string]string   `json:"reactionRoles"`
	CustomCommands map[string]map[string]string   `json:"customCommands"`
	Tickets        map[string]*TicketRecord       `json:"tickets"`
	TicketCounters map[string]uint64              `json:"ticketCounters"`
	AutoMod        *AutoModPolicy                 `json:"automod,omitempty"`
	LevelRoles     map[string]string              `json:"levelRoles"`
}

// NewDocument returns the document used when no file exists yet.
func NewDocument() *Document {
	return &Document{
		Prefixes:       make(map[string]string),
		Levels:         NewOrderedMap[*ProgressionRecord](),
		Warnings:       make(map[string][]Warning),
		Economy:        make(map[string]*EconomyRecord),
		ReactionRoles:  make(map[string]map[string]string),
		CustomCommands: make(map[string]map[string]string),
		Tickets:        make(map[string]*TicketRecord),
		TicketCounters: make(map[string]uint64),
		LevelRoles: map[string]string{
			"5":  "Level 5",
			"10": "Level 10",
			"15": "Level 15",
			"20": "Level 20",
			"30": "Level 30",
			"50": "Level 50",
		},
	}
}

// Normalize replaces collections decoded as null with empty ones.
func (d *Document) Normalize() {
	if d.Prefixes == nil {
		d.Prefixes = make(map[string]string)
	}
	if d.Warnings == nil {
		d.Warnings = make(map[string][]Warning)
	}
	if d.Economy == nil {
		d.Economy = make(map[string]*EconomyRecord)
	}
	if d.ReactionRoles == nil {
		d.ReactionRoles = make(map[string]map[string]string)
	}
	if d.CustomCommands == nil {
		d.CustomCommands = make(map[string]map[string]string)
	}
	if d.Tickets == nil {
		d.Tickets = make(map[string]*TicketRecord)
	}
	if d.TicketCounters == nil {
		d.TicketCounters = make(map[string]uint64)
	}
	if d.LevelRoles == nil {
		d.LevelRoles = make(map[string]string)
	}
}
