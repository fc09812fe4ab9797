package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"termchess/engine"
)

const appDir = "termchess"

var (
	cfgFile  = appDir + "/config.yaml"
	validate = validator.New()
)

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

// ConfigColors are xterm-256 color indices.
type ConfigColors struct {
	LightSquare   int `yaml:"light_square" validate:"min=0,max=255"`
	DarkSquare    int `yaml:"dark_square" validate:"min=0,max=255"`
	WhitePiece    int `yaml:"white_piece" validate:"min=0,max=255"`
	BlackPiece    int `yaml:"black_piece" validate:"min=0,max=255"`
	Selected      int `yaml:"selected" validate:"min=0,max=255"`
	LegalTarget   int `yaml:"legal_target" validate:"min=0,max=255"`
	LastMove      int `yaml:"last_move" validate:"min=0,max=255"`
	Check         int `yaml:"check" validate:"min=0,max=255"`
	Cursor        int `yaml:"cursor" validate:"min=0,max=255"`
	BannerFG      int `yaml:"banner_fg" validate:"min=0,max=255"`
	BannerBG      int `yaml:"banner_bg" validate:"min=0,max=255"`
	BannerShadow  int `yaml:"banner_shadow" validate:"min=0,max=255"`
	CoordinatesFG int `yaml:"coordinates_fg" validate:"min=0,max=255"`
}

// ConfigSymbols holds one glyph per piece kind; both sides share it and differ by color.
type ConfigSymbols struct {
	King   string `yaml:"king" validate:"required"`
	Queen  string `yaml:"queen" validate:"required"`
	Rook   string `yaml:"rook" validate:"required"`
	Bishop string `yaml:"bishop" validate:"required"`
	Knight string `yaml:"knight" validate:"required"`
	Pawn   string `yaml:"pawn" validate:"required"`
}

type Theme struct {
	ShowLegalMoves  bool          `yaml:"show_legal_moves"`
	ShowLastMove    bool          `yaml:"show_last_move"`
	ShowCoordinates bool          `yaml:"show_coordinates"`
	Colors          ConfigColors  `yaml:"colors"`
	Symbols         ConfigSymbols `yaml:"symbols"`
}

type PlayersConfig struct {
	White string `yaml:"white" validate:"oneof=human computer"`
	Black string `yaml:"black" validate:"oneof=human computer"`
}

// SearchConfig selects the computer player. An empty EnginePath means the built-in search.
type SearchConfig struct {
	Depth      int    `yaml:"depth" validate:"min=1,max=8"`
	EnginePath string `yaml:"engine_path"`
	MoveTimeMs int    `yaml:"move_time_ms" validate:"min=0,max=600000"`
}

type AnimationConfig struct {
	FramesPerSquare int `yaml:"frames_per_square" validate:"min=0,max=30"`
	FPS             int `yaml:"fps" validate:"min=1,max=240"`
}

// HistoryConfig controls the PGN records and the game archive. Empty paths resolve under the xdg
// data directory.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	Archive string `yaml:"archive"`
}

type LogConfig struct {
	Level   string `yaml:"level" validate:"oneof=debug info warn error"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

type Config struct {
	Theme     Theme           `yaml:"theme"`
	Players   PlayersConfig   `yaml:"players"`
	Search    SearchConfig    `yaml:"search"`
	Animation AnimationConfig `yaml:"animation"`
	History   HistoryConfig   `yaml:"history"`
	Log       LogConfig       `yaml:"log"`
}

// InitConfig returns the defaults overlaid with the user's config file, if there is one.
func InitConfig() (*Config, error) {
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err != nil {
		config := DefaultConfig
		if err := config.Validate(); err != nil {
			return nil, err
		}
		return &config, nil
	}
	return Load(absPath)
}

// Load reads a config file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	config := DefaultConfig
	if err := readCfgFile(path, &config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &InvalidConfig{describe(verrs)}
		}
		return &InvalidConfig{err.Error()}
	}
	s := c.Theme.Symbols
	for _, sym := range []string{s.King, s.Queen, s.Rook, s.Bishop, s.Knight, s.Pawn} {
		runes := []rune(sym)
		if len(runes) != 1 {
			return &InvalidConfig{fmt.Sprintf("piece symbol %q must be a single character", sym)}
		}
		if r := runes[0]; r < 32 || (r >= 127 && r <= 159) {
			return &InvalidConfig{"Unicode characters 1-31 and 127-159 are not allowed"}
		}
	}
	return nil
}

func describe(errs validator.ValidationErrors) string {
	var details strings.Builder
	for _, err := range errs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch err.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", err.Namespace()))
		case "oneof":
			details.WriteString(fmt.Sprintf("%s must be one of [%s]", err.Namespace(), err.Param()))
		case "min":
			details.WriteString(fmt.Sprintf("%s must be at least %s", err.Namespace(), err.Param()))
		case "max":
			details.WriteString(fmt.Sprintf("%s must be at most %s", err.Namespace(), err.Param()))
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", err.Namespace(), err.Tag()))
		}
	}
	return details.String()
}

// Save writes the config to the user's xdg config directory.
func (c *Config) Save() error {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	return saveCfgFile(absPath, c, 0664)
}

// GameConfig turns the configured defaults into the settings of a new game.
func (c *Config) GameConfig() engine.GameConfig {
	return engine.GameConfig{
		Players: engine.Players{
			WhiteHuman: c.Players.White == "human",
			BlackHuman: c.Players.Black == "human",
		},
		Depth:      c.Search.Depth,
		EnginePath: c.Search.EnginePath,
		MoveTimeMs: c.Search.MoveTimeMs,
	}
}

// HistoryDir is where PGN records are written.
func (c *Config) HistoryDir() string {
	if c.History.Dir != "" {
		return c.History.Dir
	}
	return filepath.Join(xdg.DataHome, appDir, "games")
}

// ArchivePath is the SQLite game archive.
func (c *Config) ArchivePath() (string, error) {
	if c.History.Archive != "" {
		return c.History.Archive, nil
	}
	p, err := xdg.DataFile(appDir + "/archive.db")
	if err != nil {
		return "", fmt.Errorf("resolve archive path: %w", err)
	}
	return p, nil
}

// LogFile is the log destination; an empty Log.File resolves under the xdg state directory.
func (c *Config) LogFile() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	p, err := xdg.StateFile(appDir + "/termchess.log")
	if err != nil {
		return "", fmt.Errorf("resolve log path: %w", err)
	}
	return p, nil
}

func saveCfgFile(filePath string, a interface{}, perm os.FileMode) error {
	yamlData, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(filePath, yamlData, perm); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func readCfgFile(filePath string, a interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, a); err != nil {
		return &InvalidConfig{fmt.Sprintf("%s: %v", filePath, err)}
	}
	return nil
}
