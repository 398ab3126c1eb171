package models

// LevelDefinition is a static level-table entry. Levels run 1..10; thresholds
// are strictly increasing and XP past the last threshold keeps accumulating
// without further leveling.
type LevelDefinition struct {
	Level             int    `json:"level"`
	XPThreshold       int64  `json:"xp_threshold"`
	Title             string `json:"title"`
	UnlockDescription string `json:"unlock_description"`
}

// LevelTable is the static level ladder, loaded at process start.
var LevelTable = []LevelDefinition{
	{Level: 1, XPThreshold: 0, Title: "Curious Freshman", UnlockDescription: "Welcome aboard"},
	{Level: 2, XPThreshold: 100, Title: "Prompt Novice", UnlockDescription: "Custom avatar frames"},
	{Level: 3, XPThreshold: 250, Title: "Diligent Drafter", UnlockDescription: "Extended prompt history"},
	{Level: 4, XPThreshold: 500, Title: "Source Seeker", UnlockDescription: "Research collections"},
	{Level: 5, XPThreshold: 1000, Title: "Honest Scholar", UnlockDescription: "Disclosure templates"},
	{Level: 6, XPThreshold: 2000, Title: "Audit Adept", UnlockDescription: "Audit comparisons"},
	{Level: 7, XPThreshold: 3500, Title: "Citation Sage", UnlockDescription: "Priority grammar checks"},
	{Level: 8, XPThreshold: 5500, Title: "Research Veteran", UnlockDescription: "Weekly insights"},
	{Level: 9, XPThreshold: 8000, Title: "Academic Ace", UnlockDescription: "Beta features"},
	{Level: 10, XPThreshold: 10000, Title: "Integrity Legend", UnlockDescription: "Hall of fame"},
}

// MaxLevel is the top of the ladder.
const MaxLevel = 10

// LevelForXP returns the highest level whose threshold is <= xp.
func LevelForXP(xp int64) int {
	level := 1
	for _, def := range LevelTable {
		if xp >= def.XPThreshold {
			level = def.Level
		}
	}
	return level
}

// LevelAt returns the definition for a level, or false when out of range.
func LevelAt(level int) (LevelDefinition, bool) {
	if level < 1 || level > len(LevelTable) {
		return LevelDefinition{}, false
	}
	return LevelTable[level-1], true
}
