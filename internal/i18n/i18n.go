// internal/i18n/i18n.go

// Package i18n is a small translation lookup over flat dotted keys.
// Missing keys fall back to the default language, then to the key
// itself so untranslated strings stay visible instead of vanishing.
package i18n

// DefaultLanguage is the fallback for unknown languages and keys.
const DefaultLanguage = "en"

// Languages lists the supported language codes.
func Languages() []string {
	return []string{"en", "de"}
}

// Supported reports whether lang has a bundle.
func Supported(lang string) bool {
	_, ok := bundles[lang]
	return ok
}

// T translates key into lang.
func T(lang, key string) string {
	if b, ok := bundles[lang]; ok {
		if s, ok := b[key]; ok {
			return s
		}
	}
	if s, ok := bundles[DefaultLanguage][key]; ok {
		return s
	}
	return key
}

var bundles = map[string]map[string]string{
	"en": {
		"app.name":        "Gather",
		"app.tagline":     "Who Liked That?",
		"app.description": "Share TikTok videos and guess who liked them!",

		"landing.createRoom":  "Create Room",
		"landing.joinRoom":    "Join Room",
		"landing.enterCode":   "Enter room code",
		"landing.join":        "Join",
		"landing.invalidCode": "Invalid room code",

		"settings.title":              "Settings",
		"settings.profile":            "Profile",
		"settings.name":               "Name",
		"settings.avatar":             "Avatar",
		"settings.sound":              "Sound",
		"settings.masterVolume":       "Master Volume",
		"settings.mute":               "Mute",
		"settings.theme":              "Theme",
		"settings.light":              "Light",
		"settings.dark":               "Dark",
		"settings.system":             "System",
		"settings.language":           "Language",
		"settings.save":               "Save",
		"settings.tiktok":             "TikTok",
		"settings.connectTikTok":      "Connect TikTok",
		"settings.disconnectTikTok":   "Disconnect TikTok",
		"settings.tiktokConnected":    "TikTok connected",
		"settings.tiktokNotConnected": "Not connected",

		"room.lobby":      "Lobby",
		"room.code":       "Room Code",
		"room.players":    "Players",
		"room.host":       "Host",
		"room.waiting":    "Waiting for host to start...",
		"room.startGame":  "Start Game",
		"room.minPlayers": "At least 3 players required",
		"room.copied":     "Copied!",
		"room.leave":      "Leave Room",

		"game.round":          "Round",
		"game.of":             "of",
		"game.yourTurn":       "Your turn to share!",
		"game.enterLink":      "Paste TikTok link",
		"game.submit":         "Submit",
		"game.watching":       "Watch the video!",
		"game.timeLeft":       "Time left",
		"game.guessing":       "Who liked this?",
		"game.selectPlayer":   "Tap a player to guess",
		"game.reveal":         "It was",
		"game.correct":        "Correct!",
		"game.wrong":          "Wrong!",
		"game.points":         "points",
		"game.waiting":        "Waiting for others...",
		"game.scores":         "Scores",
		"game.correctGuesses": "Correct Guesses",
		"game.totalPoints":    "Total Points",

		"results.title":          "Game Over!",
		"results.winner":         "Winner",
		"results.podium":         "Top 3",
		"results.rankings":       "Rankings",
		"results.stats":          "Statistics",
		"results.totalRounds":    "Total Rounds",
		"results.correctGuesses": "Correct Guesses",
		"results.accuracy":       "Accuracy",
		"results.awards":         "Awards",
		"results.mostCorrect":    "Most Correct",
		"results.fastest":        "Fastest Guesser",
		"results.trickiest":      "Trickiest Picker",
		"results.playAgain":      "Play Again",
		"results.backToLobby":    "Back to Lobby",
		"results.share":          "Share Results",

		"common.loading": "Loading...",
		"common.error":   "Something went wrong",
		"common.retry":   "Retry",
		"common.cancel":  "Cancel",
		"common.confirm": "Confirm",
		"common.back":    "Back",
		"common.next":    "Next",
		"common.done":    "Done",
	},
	"de": {
		"app.name":        "Gather",
		"app.tagline":     "Wer hat das geliked?",
		"app.description": "Teile TikTok-Videos und errate, wer sie geliked hat!",

		"landing.createRoom":  "Raum erstellen",
		"landing.joinRoom":    "Raum beitreten",
		"landing.enterCode":   "Raum-Code eingeben",
		"landing.join":        "Beitreten",
		"landing.invalidCode": "Ungültiger Raum-Code",

		"settings.title":              "Einstellungen",
		"settings.profile":            "Profil",
		"settings.name":               "Name",
		"settings.avatar":             "Avatar",
		"settings.sound":              "Sound",
		"settings.masterVolume":       "Lautstärke",
		"settings.mute":               "Stumm",
		"settings.theme":              "Design",
		"settings.light":              "Hell",
		"settings.dark":               "Dunkel",
		"settings.system":             "System",
		"settings.language":           "Sprache",
		"settings.save":               "Speichern",
		"settings.tiktok":             "TikTok",
		"settings.connectTikTok":      "TikTok verbinden",
		"settings.disconnectTikTok":   "Trennen",
		"settings.tiktokConnected":    "TikTok verbunden",
		"settings.tiktokNotConnected": "Nicht verbunden",

		"room.lobby":      "Lobby",
		"room.code":       "Raum-Code",
		"room.players":    "Spieler",
		"room.host":       "Host",
		"room.waiting":    "Warte auf Host...",
		"room.startGame":  "Spiel starten",
		"room.minPlayers": "Mindestens 3 Spieler erforderlich",
		"room.copied":     "Kopiert!",
		"room.leave":      "Raum verlassen",

		"game.round":          "Runde",
		"game.of":             "von",
		"game.yourTurn":       "Du bist dran!",
		"game.enterLink":      "TikTok-Link einfügen",
		"game.submit":         "Absenden",
		"game.watching":       "Schau das Video!",
		"game.timeLeft":       "Verbleibende Zeit",
		"game.guessing":       "Wer hat das geliked?",
		"game.selectPlayer":   "Tippe auf einen Spieler",
		"game.reveal":         "Es war",
		"game.correct":        "Richtig!",
		"game.wrong":          "Falsch!",
		"game.points":         "Punkte",
		"game.waiting":        "Warte auf andere...",
		"game.scores":         "Punktestand",
		"game.correctGuesses": "Richtige Tipps",
		"game.totalPoints":    "Gesamt Punkte",

		"results.title":          "Spiel vorbei!",
		"results.winner":         "Gewinner",
		"results.podium":         "Top 3",
		"results.rankings":       "Rangliste",
		"results.stats":          "Statistiken",
		"results.totalRounds":    "Runden gesamt",
		"results.correctGuesses": "Richtige Tipps",
		"results.accuracy":       "Genauigkeit",
		"results.awards":         "Auszeichnungen",
		"results.mostCorrect":    "Meiste Treffer",
		"results.fastest":        "Schnellster",
		"results.trickiest":      "Trickreichster",
		"results.playAgain":      "Nochmal spielen",
		"results.backToLobby":    "Zurück zur Lobby",
		"results.share":          "Ergebnisse teilen",

		"common.loading": "Lädt...",
		"common.error":   "Etwas ist schiefgelaufen",
		"common.retry":   "Erneut versuchen",
		"common.cancel":  "Abbrechen",
		"common.confirm": "Bestätigen",
		"common.back":    "Zurück",
		"common.next":    "Weiter",
		"common.done":    "Fertig",
	},
}
