// Package category resolves arbitrary, backend-invented category labels to
// stable colors and icons for display. Resolution is pure: the same label
// always yields the same style and glyph, across sessions and processes.
package category

import "strings"

// Style is one palette entry: CSS classes for badge rendering plus the raw
// hex color used by charts.
type Style struct {
	Background string `json:"bg"`
	Text       string `json:"text"`
	Hex        string `json:"hex"`
}

// palette is the fixed ordered color table. A label's rolling hash reduced
// modulo the palette size picks its entry, so identical labels always land
// on the identical color and new labels spread pseudo-uniformly.
var palette = []Style{
	{Background: "cat-blue", Text: "cat-blue-text", Hex: "#3b82f6"},
	{Background: "cat-emerald", Text: "cat-emerald-text", Hex: "#10b981"},
	{Background: "cat-violet", Text: "cat-violet-text", Hex: "#8b5cf6"},
	{Background: "cat-orange", Text: "cat-orange-text", Hex: "#f97316"},
	{Background: "cat-rose", Text: "cat-rose-text", Hex: "#f43f5e"},
	{Background: "cat-cyan", Text: "cat-cyan-text", Hex: "#06b6d4"},
	{Background: "cat-amber", Text: "cat-amber-text", Hex: "#f59e0b"},
	{Background: "cat-pink", Text: "cat-pink-text", Hex: "#ec4899"},
	{Background: "cat-teal", Text: "cat-teal-text", Hex: "#14b8a6"},
	{Background: "cat-indigo", Text: "cat-indigo-text", Hex: "#6366f1"},
	{Background: "cat-lime", Text: "cat-lime-text", Hex: "#84cc16"},
	{Background: "cat-fuchsia", Text: "cat-fuchsia-text", Hex: "#d946ef"},
}

// keywordIcons maps category keywords to glyphs. Order matters: the first
// keyword contained in the lower-cased label wins, so "snack" beats "candy"
// for a label mentioning both.
var keywordIcons = []struct {
	keyword string
	glyph   string
}{
	{"dairy", "🥛"}, {"milk", "🥛"}, {"egg", "🥚"}, {"cheese", "🧀"},
	{"meat", "🥩"}, {"seafood", "🐟"}, {"fish", "🐟"}, {"poultry", "🍗"}, {"chicken", "🍗"},
	{"bread", "🍞"}, {"bak", "🍞"}, {"pastry", "🥐"},
	{"snack", "🍿"}, {"candy", "🍬"}, {"chocolate", "🍫"}, {"sweet", "🍬"},
	{"drink", "🥤"}, {"beverage", "🥤"}, {"juice", "🧃"}, {"soda", "🥤"}, {"water", "💧"}, {"coffee", "☕"},
	{"produce", "🥦"}, {"fruit", "🍎"}, {"vegetable", "🥕"}, {"fresh", "🥬"}, {"herb", "🌿"},
	{"clean", "🧹"}, {"laundry", "🧺"}, {"detergent", "🫧"}, {"household", "🏠"},
	{"care", "🧴"}, {"health", "💊"}, {"toiletry", "🪥"}, {"hygiene", "🪥"},
	{"frozen", "🧊"}, {"ice", "🧊"},
	{"organic", "🌱"}, {"baby", "👶"}, {"pet", "🐾"},
	{"deli", "🥪"}, {"prepared", "🍱"},
}

const fallbackIcon = "🛒"

// hashIndex computes a deterministic palette index from a label using a
// 32-bit rolling hash over its code points, case-sensitive, left to right
func hashIndex(label string, mod int) int {
	var hash uint32
	for _, r := range label {
		hash = hash*31 + uint32(r)
	}
	return int(hash % uint32(mod))
}

// StyleFor returns the stable style entry for a category label. Callers must
// guard against empty labels; the function itself is total over non-empty
// strings and has no error path.
func StyleFor(label string) Style {
	return palette[hashIndex(label, len(palette))]
}

// HexFor returns the stable chart color for a category label
func HexFor(label string) string {
	return StyleFor(label).Hex
}

// IconFor returns the glyph for a category label: the first keyword in the
// canonical table contained in the lower-cased label, else a generic cart
func IconFor(label string) string {
	lower := strings.ToLower(label)
	for _, entry := range keywordIcons {
		if strings.Contains(lower, entry.keyword) {
			return entry.glyph
		}
	}
	return fallbackIcon
}
