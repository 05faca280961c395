package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"geoglobe/internal/camera"
)

// Config holds all application configuration.
type Config struct {
	Globe   GlobeConfig   `mapstructure:"globe"`
	Camera  CameraConfig  `mapstructure:"camera"`
	Flight  FlightConfig  `mapstructure:"flight"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type GlobeConfig struct {
	BaseRadius    float64 `mapstructure:"base_radius"`
	CenterLon     float64 `mapstructure:"center_lon"`
	CenterLat     float64 `mapstructure:"center_lat"`
	CountryRatio  float64 `mapstructure:"country_ratio"`
	CityRatio     float64 `mapstructure:"city_ratio"`
	IncidentRatio float64 `mapstructure:"incident_ratio"`
	StartRatio    float64 `mapstructure:"start_ratio"`
}

// Radii in scene units.
func (g GlobeConfig) CountryRadius() float64  { return g.BaseRadius * g.CountryRatio }
func (g GlobeConfig) CityRadius() float64     { return g.BaseRadius * g.CityRatio }
func (g GlobeConfig) IncidentRadius() float64 { return g.BaseRadius * g.IncidentRatio }
func (g GlobeConfig) StartRadius() float64    { return g.BaseRadius * g.StartRatio }

type CameraConfig struct {
	FOV                float64 `mapstructure:"fov"`
	Aspect             float64 `mapstructure:"aspect"`
	Near               float64 `mapstructure:"near"`
	Far                float64 `mapstructure:"far"`
	WidthIncreaseRatio float64 `mapstructure:"width_increase_ratio"`
}

type FlightConfig struct {
	TransitAltitude float64 `mapstructure:"transit_altitude"`
	DirectAngle     float64 `mapstructure:"direct_angle"`
	StepCoefficient float64 `mapstructure:"step_coefficient"`
	TransitArrival  float64 `mapstructure:"transit_arrival"`
	TargetArrival   float64 `mapstructure:"target_arrival"`
	FrameRate       int     `mapstructure:"frame_rate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Params converts the configuration into camera tunables.
func (c *Config) Params() camera.Params {
	return camera.Params{
		BaseRadius:         c.Globe.BaseRadius,
		FOV:                c.Camera.FOV,
		Aspect:             c.Camera.Aspect,
		Near:               c.Camera.Near,
		Far:                c.Camera.Far,
		WidthIncreaseRatio: c.Camera.WidthIncreaseRatio,
		TransitAltitude:    c.Flight.TransitAltitude,
		DirectFlightAngle:  c.Flight.DirectAngle,
		StepCoefficient:    c.Flight.StepCoefficient,
		TransitArrival:     c.Flight.TransitArrival,
		TargetArrival:      c.Flight.TargetArrival,
	}
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"radius":       "globe.base_radius",
	"fov":          "camera.fov",
	"aspect":       "camera.aspect",
	"frame-rate":   "flight.frame_rate",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"log-file":     "log.file",
	"metrics-addr": "metrics.addr",
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Float64("radius", 228, "sphere radius in scene units")
	fs.Float64("fov", 50, "vertical field of view in degrees")
	fs.Float64("aspect", 16.0/9.0, "viewport aspect ratio")
	fs.Int("frame-rate", 60, "frames per second of the flight loop")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "text", "log format: text or json")
	fs.String("log-file", "", "write logs to this file")
	fs.String("metrics-addr", "", "serve prometheus metrics on this address")
	fs.String("config", "", "config file (default geoglobe.yaml in . or ./configs)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("globe.base_radius", 228.0)
	v.SetDefault("globe.center_lon", 36.2327)
	v.SetDefault("globe.center_lat", 49.9930)
	v.SetDefault("globe.country_ratio", 1.06)
	v.SetDefault("globe.city_ratio", 1.02)
	v.SetDefault("globe.incident_ratio", 1.0006)
	v.SetDefault("globe.start_ratio", 2.5)
	v.SetDefault("camera.fov", 50.0)
	v.SetDefault("camera.aspect", 16.0/9.0)
	v.SetDefault("camera.near", 0.1)
	v.SetDefault("camera.far", 1000.0)
	v.SetDefault("camera.width_increase_ratio", 1.66)
	v.SetDefault("flight.transit_altitude", 1.7)
	v.SetDefault("flight.direct_angle", 10.0)
	v.SetDefault("flight.step_coefficient", 0.1)
	v.SetDefault("flight.transit_arrival", 2.0)
	v.SetDefault("flight.target_arrival", 0.01)
	v.SetDefault("flight.frame_rate", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.addr", "")
}

// Load reads configuration from defaults, an optional config file, the
// environment and, when fs is not nil, flags that were set explicitly.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Config file (optional)
	var explicit string
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", explicit, err)
		}
	} else {
		v.SetConfigName("geoglobe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: GEOGLOBE_FLIGHT_DIRECT_ANGLE → flight.direct_angle
	v.SetEnvPrefix("GEOGLOBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that every tunable is usable.
func (c *Config) Validate() error {
	var errs []string

	if c.Globe.BaseRadius <= 0 {
		errs = append(errs, fmt.Sprintf("globe.base_radius must be positive, got %g", c.Globe.BaseRadius))
	}
	if c.Globe.CenterLon < -180 || c.Globe.CenterLon > 180 {
		errs = append(errs, fmt.Sprintf("globe.center_lon must be within [-180,180], got %g", c.Globe.CenterLon))
	}
	if c.Globe.CenterLat < -90 || c.Globe.CenterLat > 90 {
		errs = append(errs, fmt.Sprintf("globe.center_lat must be within [-90,90], got %g", c.Globe.CenterLat))
	}
	ratios := []struct {
		key   string
		value float64
	}{
		{"globe.country_ratio", c.Globe.CountryRatio},
		{"globe.city_ratio", c.Globe.CityRatio},
		{"globe.incident_ratio", c.Globe.IncidentRatio},
		{"globe.start_ratio", c.Globe.StartRatio},
	}
	for _, r := range ratios {
		// Flights to or from the surface never converge.
		if r.value <= 1 {
			errs = append(errs, fmt.Sprintf("%s must be greater than 1, got %g", r.key, r.value))
		}
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Sprintf("camera.fov must be within (0,180), got %g", c.Camera.FOV))
	}
	if c.Camera.Aspect <= 0 {
		errs = append(errs, "camera.aspect must be positive")
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, "camera.near must be positive and below camera.far")
	}
	if c.Camera.WidthIncreaseRatio <= 0 {
		errs = append(errs, "camera.width_increase_ratio must be positive")
	}
	if c.Flight.TransitAltitude <= 1 {
		errs = append(errs, fmt.Sprintf("flight.transit_altitude must be greater than 1, got %g", c.Flight.TransitAltitude))
	}
	if c.Flight.DirectAngle < 0 || c.Flight.DirectAngle > 180 {
		errs = append(errs, "flight.direct_angle must be within [0,180]")
	}
	if c.Flight.StepCoefficient <= 0 || c.Flight.StepCoefficient > 1 {
		errs = append(errs, "flight.step_coefficient must be within (0,1]")
	}
	if c.Flight.TransitArrival <= 0 || c.Flight.TargetArrival <= 0 {
		errs = append(errs, "flight arrival thresholds must be positive")
	}
	if c.Flight.FrameRate <= 0 {
		errs = append(errs, "flight.frame_rate must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
