// internal/driver/escpos/config.go
package escpos

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"order-printer/pkg/driver"
)

// Config holds ESC/POS driver settings
type Config struct {
	PrintWidth     int            `mapstructure:"print_width"`
	PaperWidthDots int            `mapstructure:"paper_width_dots"`
	CharacterSet   string         `mapstructure:"character_set"`
	CutType        driver.CutType `mapstructure:"cut_type"`
	StatusTimeout  time.Duration  `mapstructure:"status_timeout"`
	RasterSymbols  bool           `mapstructure:"raster_symbols"`
}

// DefaultConfig returns settings for an 80mm printer at 203 dpi
func DefaultConfig() Config {
	return Config{
		PrintWidth:     48,
		PaperWidthDots: 576,
		CharacterSet:   "PC437",
		CutType:        driver.CutFull,
		StatusTimeout:  2 * time.Second,
	}
}

var characterSets = map[string]*charmap.Charmap{
	"PC437": charmap.CodePage437,
	"PC850": charmap.CodePage850,
	"PC852": charmap.CodePage852,
	"PC858": charmap.CodePage858,
}

// ParseConfig overlays printer options onto the defaults. printWidth comes
// from the receipt layout and is overridden by an explicit print_width option.
func ParseConfig(options map[string]interface{}, printWidth int) (Config, error) {
	cfg := DefaultConfig()
	if printWidth > 0 {
		cfg.PrintWidth = printWidth
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return cfg, err
	}
	if err := decoder.Decode(options); err != nil {
		return cfg, fmt.Errorf("invalid escpos options: %w", err)
	}

	cfg.CharacterSet = strings.ToUpper(cfg.CharacterSet)
	cfg.CutType = driver.CutType(strings.ToLower(string(cfg.CutType)))
	return cfg, cfg.Validate()
}

// Validate checks the settings are usable
func (c Config) Validate() error {
	if c.PrintWidth < 1 {
		return fmt.Errorf("print_width must be positive")
	}
	if c.PaperWidthDots < 8 {
		return fmt.Errorf("paper_width_dots must be at least 8")
	}
	if _, ok := characterSets[c.CharacterSet]; !ok {
		return fmt.Errorf("unsupported character set: %s", c.CharacterSet)
	}
	if c.CutType != driver.CutFull && c.CutType != driver.CutPartial {
		return fmt.Errorf("invalid cut type: %s", c.CutType)
	}
	if c.StatusTimeout <= 0 {
		return fmt.Errorf("status_timeout must be positive")
	}
	return nil
}

func (c Config) encoder() *encoding.Encoder {
	return encoding.ReplaceUnsupported(characterSets[c.CharacterSet].NewEncoder())
}
