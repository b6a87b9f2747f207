package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port string `toml:"port"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

// LexiconConfig is the static matching vocabulary. Brands seed the explicit
// brand+model pattern; context words gate brand inference on standalone
// tokens; bad tokens filter common numeric junk (resolutions, channel
// layouts) that looks like a model number.
type LexiconConfig struct {
	Brands       []string `toml:"brands"`
	ContextWords []string `toml:"context_words"`
	BadTokens    []string `toml:"bad_tokens"`
}

// AliasEntry maps a raw spelling to a preferred display name.
type AliasEntry struct {
	Alias   string `toml:"alias"`
	Display string `toml:"display"`
}

type ScoringConfig struct {
	MentionWeight float64 `toml:"mention_weight"`
	VoteWeight    float64 `toml:"vote_weight"`
	PostBoost     float64 `toml:"post_boost"`
}

type RankingConfig struct {
	DefaultTopN int `toml:"default_top_n"`
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Lexicon LexiconConfig `toml:"lexicon"`
	Aliases []AliasEntry  `toml:"aliases"`
	Scoring ScoringConfig `toml:"scoring"`
	Ranking RankingConfig `toml:"ranking"`
}

// Default returns the built-in configuration so the binaries run without a
// config file. A TOML file overlays these values section by section.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080"},
		Storage: StorageConfig{Path: "data/threadtally.db"},
		Lexicon: LexiconConfig{
			Brands:       defaultBrands(),
			ContextWords: defaultContextWords(),
			BadTokens:    defaultBadTokens(),
		},
		Aliases: defaultAliases(),
		Scoring: ScoringConfig{MentionWeight: 0.5, VoteWeight: 0.5, PostBoost: 1.35},
		Ranking: RankingConfig{DefaultTopN: 50},
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// Starting brand list; expand over time.
func defaultBrands() []string {
	return []string{
		"KEF", "ELAC", "POLK", "SVS", "KLIPSCH", "JBL", "SONY", "YAMAHA", "DENON", "MARANTZ",
		"ONKYO", "PIONEER", "WHARFEDALE", "FOCAL", "DALI", "PARADIGM", "EMOTIVA", "FLUANCE",
		"MICCA", "EDIFIER", "MONOPRICE", "B&W", "BW", "BOWERS", "WILKINS", "Q ACOUSTICS",
		"QACOUSTICS", "JAMO", "NEUMI", "RSL", "HSU", "ASCEND", "AR", "AUDIOENGINE",
		"CAMBRIDGE", "CANTON", "CERWIN", "CHANE", "DYNACO", "DYNAUDIO", "GENELEC", "HARBETH",
		"INFINITY", "MAGNEPAN", "MISSION", "MONITOR AUDIO", "NHT", "PSB", "REVEL", "SALK",
		"SENNHEISER", "TANNOY", "TEAC", "TRIANGLE", "VANDERSTEEN", "VIENNA",
	}
}

// Speaker-ish words that help disambiguate standalone tokens.
func defaultContextWords() []string {
	return []string{
		"speaker", "speakers", "bookshelf", "bookself", "monitor", "monitors", "pair",
		"pairs", "stands", "nearfield", "passive", "amp", "receiver", "integrated",
		"sub", "subwoofer", "stereo", "2.0", "2.1",
	}
}

func defaultBadTokens() []string {
	return []string{
		"2.0", "2.1", "5.1", "7.1", "3.5", "6.5", "8.0", "10.0", "12.0", "14.0",
		"1080", "1440", "4K", "8K",
	}
}

func defaultAliases() []AliasEntry {
	return []AliasEntry{
		{Alias: "q150", Display: "KEF Q150"},
		{Alias: "q350", Display: "KEF Q350"},
		{Alias: "ls50", Display: "KEF LS50"},
		{Alias: "b6.2", Display: "ELAC B6.2"},
		{Alias: "dbr62", Display: "ELAC DBR-62"},
		{Alias: "rp600m", Display: "Klipsch RP-600M"},
		{Alias: "rp-600m", Display: "Klipsch RP-600M"},
		{Alias: "sb1000", Display: "SVS SB-1000"},
		{Alias: "s15", Display: "Polk Signature S15"},
		{Alias: "t15", Display: "Polk T15"},
		{Alias: "606", Display: "B&W 606"},
		{Alias: "3020i", Display: "Q Acoustics 3020i"},
	}
}
