// Package config loads daemon options from a TOML file, the environment
// and command-line flags.
package config

import (
	"errors"
	"fmt"
	"math/bits"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"

	"github.com/sweeney/switch-led/internal/gpio"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "SWITCHLED_"

// Options is the flat daemon configuration. Fields tagged `flag` are bound
// to command-line flags; `toml` is a dotted path into the config file.
type Options struct {
	Config string `flag:"config"`

	Poll       time.Duration `flag:"poll" toml:"loop.poll" env:"POLL"`
	PrintState bool          `flag:"print-state"`

	Chip     string `flag:"chip" toml:"gpio.chip" env:"GPIO_CHIP"`
	PinSW1   int    `toml:"gpio.sw1" env:"GPIO_SW1"`
	PinSW2   int    `toml:"gpio.sw2" env:"GPIO_SW2"`
	PinLED1  int    `toml:"gpio.led1" env:"GPIO_LED1"`
	PinRed   int    `toml:"gpio.red" env:"GPIO_RED"`
	PinGreen int    `toml:"gpio.green" env:"GPIO_GREEN"`
	PinBlue  int    `toml:"gpio.blue" env:"GPIO_BLUE"`

	Broker string `flag:"broker" toml:"mqtt.broker" env:"MQTT_BROKER"`
	HTTP   string `flag:"http" toml:"http.addr" env:"HTTP_ADDR"`
}

// Defaults returns the options used when nothing else is configured.
// Pin numbers are BCM offsets on gpiochip0 of a Raspberry Pi.
func Defaults() Options {
	return Options{
		Config:   "switch-led.toml",
		Poll:     10 * time.Millisecond,
		Chip:     "gpiochip0",
		PinSW1:   17,
		PinSW2:   27,
		PinLED1:  22,
		PinRed:   5,
		PinGreen: 6,
		PinBlue:  13,
		Broker:   "tcp://localhost:1883",
		HTTP:     ":8080",
	}
}

// RegisterFlags binds the flag-tagged fields of opts to fs, using the
// current field values as defaults.
func RegisterFlags(fs *pflag.FlagSet, opts *Options) {
	fs.StringVarP(&opts.Config, "config", "c", opts.Config, "Path to TOML configuration file")
	fs.DurationVar(&opts.Poll, "poll", opts.Poll, "Switch polling interval")
	fs.BoolVar(&opts.PrintState, "print-state", opts.PrintState, "Print current switch and LED state and exit")
	fs.StringVar(&opts.Chip, "chip", opts.Chip, "GPIO character device chip name")
	fs.StringVar(&opts.Broker, "broker", opts.Broker, `MQTT broker address ("" to disable)`)
	fs.StringVar(&opts.HTTP, "http", opts.HTTP, `HTTP status address ("" to disable)`)
}

// Load applies the config file and environment to opts with precedence
// CLI flag > env var > config file > default. Flags explicitly set on fs
// are never overwritten. A missing config file is not an error unless the
// path was set explicitly.
func Load(opts *Options, fs *pflag.FlagSet) error {
	changed := make(map[string]bool)
	explicitConfig := false
	if fs != nil {
		fs.Visit(func(f *pflag.Flag) {
			changed[f.Name] = true
		})
		explicitConfig = changed["config"]
	}

	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	if opts.Config != "" {
		data, err := os.ReadFile(opts.Config)
		switch {
		case err == nil:
			var file map[string]any
			if err := toml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parse %s: %w", opts.Config, err)
			}
			for i := 0; i < t.NumField(); i++ {
				ft := t.Field(i)
				path := ft.Tag.Get("toml")
				if path == "" || changed[flagName(ft)] {
					continue
				}
				if value := nestedValue(file, path); value != nil {
					if err := setFromTOML(v.Field(i), value); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
				}
			}
		case errors.Is(err, os.ErrNotExist) && !explicitConfig:
			// Default path absent: run on defaults.
		default:
			return fmt.Errorf("read config: %w", err)
		}
	}

	for i := 0; i < t.NumField(); i++ {
		ft := t.Field(i)
		key := ft.Tag.Get("env")
		if key == "" || changed[flagName(ft)] {
			continue
		}
		if s, ok := os.LookupEnv(EnvPrefix + key); ok {
			if err := setFromString(v.Field(i), s); err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
		}
	}

	return opts.Validate()
}

// Validate checks that the options describe a usable setup.
func (o *Options) Validate() error {
	if o.Poll <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", o.Poll)
	}
	if o.Chip == "" {
		return errors.New("gpio chip must be set")
	}

	seen := make(map[int]string)
	for name, pin := range o.pins() {
		if pin < 0 {
			return fmt.Errorf("pin %s: negative offset %d", name, pin)
		}
		if other, ok := seen[pin]; ok {
			return fmt.Errorf("pins %s and %s share offset %d", other, name, pin)
		}
		seen[pin] = name
	}
	return nil
}

func (o *Options) pins() map[string]int {
	return map[string]int{
		"sw1":   o.PinSW1,
		"sw2":   o.PinSW2,
		"led1":  o.PinLED1,
		"red":   o.PinRed,
		"green": o.PinGreen,
		"blue":  o.PinBlue,
	}
}

// Port1Pins maps port 1 bits (LED1 and both switches) to line offsets.
func (o *Options) Port1Pins() map[int]int {
	return map[int]int{
		bitIndex(gpio.LED1): o.PinLED1,
		bitIndex(gpio.SW1):  o.PinSW1,
		bitIndex(gpio.SW2):  o.PinSW2,
	}
}

// Port2Pins maps port 2 bits (the tri-color LED) to line offsets.
func (o *Options) Port2Pins() map[int]int {
	return map[int]int{
		bitIndex(gpio.Red):   o.PinRed,
		bitIndex(gpio.Green): o.PinGreen,
		bitIndex(gpio.Blue):  o.PinBlue,
	}
}

func bitIndex(mask uint8) int {
	return bits.TrailingZeros8(mask)
}

// flagName returns the CLI flag bound to a field, or "" for fields that
// can only be set from file or env.
func flagName(f reflect.StructField) string {
	return f.Tag.Get("flag")
}

// nestedValue retrieves a value from a nested map using dot notation.
func nestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// setFromTOML assigns a decoded TOML value. Durations are written as strings
// ("25ms"); integers decode as int64.
func setFromTOML(field reflect.Value, value any) error {
	if s, ok := value.(string); ok {
		return setFromString(field, s)
	}

	switch field.Kind() {
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("want bool, got %T", value)
		}
		field.SetBool(b)
	case reflect.Int:
		i, ok := value.(int64)
		if !ok {
			return fmt.Errorf("want integer, got %T", value)
		}
		field.SetInt(i)
	default:
		return fmt.Errorf("want %s, got %T", field.Type(), value)
	}
	return nil
}

// setFromString parses s into field (for env vars and TOML strings).
func setFromString(field reflect.Value, s string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int:
		i, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		field.SetInt(int64(i))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}
