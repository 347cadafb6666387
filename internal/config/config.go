package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"tornado/internal/canvas"
)

const appName = "tornado"

// Config holds tornado configuration.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Canvas CanvasConfig `toml:"canvas"`
	UI     UIConfig     `toml:"ui"`
	Assets AssetsConfig `toml:"assets"`
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend string `toml:"backend"` // "sqlite", "remote", "dynamodb"
	// Dir is where boards, exports and uploads go when no explicit path is set.
	Dir      string `toml:"dir"`
	Path     string `toml:"path"`
	URL      string `toml:"url"`
	Table    string `toml:"table"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
	Breaker  bool   `toml:"breaker"`
	Project  string `toml:"project"`
	// TimeoutSeconds bounds each background save.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

type CanvasConfig struct {
	DragThreshold float64          `toml:"drag_threshold"`
	HandleSize    float64          `toml:"handle_size"`
	HistoryLimit  int              `toml:"history_limit"`
	WheelZoom     canvas.ZoomRange `toml:"wheel_zoom"`
	ButtonZoom    canvas.ZoomRange `toml:"button_zoom"`
	FitPadding    float64          `toml:"fit_padding"`
	DefaultColor  string           `toml:"default_color"`
}

// UIConfig controls the terminal front end.
type UIConfig struct {
	StartMenu     bool `toml:"start_menu"`
	Confirmations bool `toml:"confirmations"`
	CellWidth     int  `toml:"cell_width"`
	CellHeight    int  `toml:"cell_height"`
	PanStep       int  `toml:"pan_step"`
}

type AssetsConfig struct {
	Dir      string `toml:"dir"`
	URL      string `toml:"url"`
	MaxSide  int    `toml:"max_side"`
	Quality  int    `toml:"quality"`
	MaxWidth int    `toml:"max_width"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
	// PublicURL prefixes asset links. Empty means derive it from the request.
	PublicURL string `toml:"public_url"`
	// MaxUploadMB caps asset uploads.
	MaxUploadMB int `toml:"max_upload_mb"`
}

// Default returns the default configuration.
func Default() *Config {
	vp := canvas.DefaultViewportOptions()
	return &Config{
		Store: StoreConfig{
			Backend:        "sqlite",
			Breaker:        true,
			Table:          "tornado",
			Region:         "us-east-1",
			TimeoutSeconds: 10,
		},
		Canvas: CanvasConfig{
			DragThreshold: canvas.DefaultDragThreshold,
			HandleSize:    16,
			HistoryLimit:  200,
			WheelZoom:     vp.WheelZoom,
			ButtonZoom:    vp.ButtonZoom,
			FitPadding:    vp.FitPadding,
			DefaultColor:  canvas.Palette[0],
		},
		UI: UIConfig{
			StartMenu:     true,
			Confirmations: true,
			CellWidth:     8,
			CellHeight:    16,
			PanStep:       4,
		},
		Assets: AssetsConfig{MaxSide: 1280, Quality: 80, MaxWidth: 300},
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Addr: ":8080", MaxUploadMB: 20},
	}
}

// Dir returns the tornado config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// Path returns the location of config.toml.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at Path. A missing file yields the defaults;
// a malformed one is an error. Environment overrides are applied last.
func Load() (*Config, error) {
	return LoadFile(Path())
}

func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.resolvePaths()
	return cfg, nil
}

// Save writes cfg to Path.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil
	}
	return Save(Default())
}

func (c *Config) applyEnv() {
	c.Store.Backend = getEnv("TORNADO_STORE", c.Store.Backend)
	c.Store.URL = getEnv("TORNADO_STORE_URL", c.Store.URL)
	c.Store.Path = getEnv("TORNADO_DB", c.Store.Path)
	c.Store.Table = getEnv("TORNADO_TABLE", c.Store.Table)
	c.Store.Region = getEnv("AWS_REGION", c.Store.Region)
	c.Store.Breaker = getEnvBool("TORNADO_BREAKER", c.Store.Breaker)
	c.Log.Level = getEnv("TORNADO_LOG_LEVEL", c.Log.Level)
	c.Server.Addr = getEnv("TORNADO_ADDR", c.Server.Addr)
}

// resolvePaths expands ~ and fills derived locations from the base
// directory.
func (c *Config) resolvePaths() {
	c.Store.Dir = expandPath(c.Store.Dir)
	base := c.Store.Dir
	if base == "" {
		base = Dir()
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(base, "boards.db")
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = filepath.Join(base, "assets")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(Dir(), appName+".log")
	}
	c.Store.Path = expandPath(c.Store.Path)
	c.Assets.Dir = expandPath(c.Assets.Dir)
	c.Log.File = expandPath(c.Log.File)
}

// SavePath returns where an export named filename should be written.
func (c *Config) SavePath(filename string) string {
	if c.Store.Dir == "" {
		return filename
	}
	_ = os.MkdirAll(c.Store.Dir, 0o755)
	return filepath.Join(c.Store.Dir, filename)
}

// CanvasOptions converts the canvas section for the interaction engine.
func (c *Config) CanvasOptions() canvas.Options {
	opts := canvas.DefaultOptions()
	opts.DragThreshold = c.Canvas.DragThreshold
	opts.HandleSize = c.Canvas.HandleSize
	opts.HistoryLimit = c.Canvas.HistoryLimit
	opts.DefaultColor = c.Canvas.DefaultColor
	opts.Viewport.WheelZoom = c.Canvas.WheelZoom
	opts.Viewport.ButtonZoom = c.Canvas.ButtonZoom
	opts.Viewport.FitPadding = c.Canvas.FitPadding
	return opts
}

func expandPath(p string) string {
	if p == "" || p == ":memory:" {
		return p
	}
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if !filepath.IsAbs(p) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	return p
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
