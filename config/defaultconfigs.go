package config

var DefaultConfig Config
var DefaultTheme Theme

func init() {
	DefaultTheme = Theme{
		ShowLegalMoves:  true,
		ShowLastMove:    true,
		ShowCoordinates: true,
		Colors: ConfigColors{
			LightSquare:   180,
			DarkSquare:    94,
			WhitePiece:    255,
			BlackPiece:    232,
			Selected:      4,
			LegalTarget:   71,
			LastMove:      143,
			Check:         160,
			Cursor:        2,
			BannerFG:      255,
			BannerBG:      24,
			BannerShadow:  235,
			CoordinatesFG: 244,
		},
		Symbols: ConfigSymbols{
			King:   "♚",
			Queen:  "♛",
			Rook:   "♜",
			Bishop: "♝",
			Knight: "♞",
			Pawn:   "♟",
		},
	}

	DefaultConfig = Config{
		Theme: DefaultTheme,
		Players: PlayersConfig{
			White: "human",
			Black: "computer",
		},
		Search: SearchConfig{
			Depth: 3,
		},
		Animation: AnimationConfig{
			FramesPerSquare: 6,
			FPS:             60,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
