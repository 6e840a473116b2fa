package app

// MinPlayersToStart defines the minimum roster size required to start a game.
// Keep this centralized so tests or local runs can adjust the rule without touching multiple call sites.
const MinPlayersToStart = 2

// MaxChatLen bounds a single chat line after sanitization.
const MaxChatLen = 200
