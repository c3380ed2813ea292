package tracker

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/saferide/saferide/pkg/model"
	"gopkg.in/yaml.v3"
)

// DetectionConfig holds every threshold the anomaly detector evaluates
// against. The detector receives it at construction so no ambient state is
// read while a fix is being processed.
type DetectionConfig struct {
	StoppageDistanceThresholdM   float64 `yaml:"stoppage_distance_threshold_m"`
	StoppageTimeThresholdMinutes int     `yaml:"stoppage_time_threshold_minutes"`

	DeviationThresholdKm float64 `yaml:"deviation_threshold_km"`

	AutoCreateSosOnAnomaly bool `yaml:"auto_create_sos_on_anomaly"`

	StoppageCooldown  time.Duration `yaml:"stoppage_cooldown"`
	DeviationCooldown time.Duration `yaml:"deviation_cooldown"`
}

var defaultDetectionConfig = DetectionConfig{
	StoppageDistanceThresholdM:   20,
	StoppageTimeThresholdMinutes: 10,
	DeviationThresholdKm:         0.5,
	AutoCreateSosOnAnomaly:       false,
	StoppageCooldown:             30 * time.Minute,
	DeviationCooldown:            5 * time.Minute,
}

// GetDetectionConfig returns the detection configuration, starting from the
// defaults, layering an optional YAML file (SAFERIDE_CONFIG) and finally any
// environment variable overrides.
func GetDetectionConfig() DetectionConfig {
	config := defaultDetectionConfig

	if path := os.Getenv("SAFERIDE_CONFIG"); path != "" {
		fileContents, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to read config file")
		} else if err := yaml.Unmarshal(fileContents, &config); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to parse config file")
		}
	}

	if val := os.Getenv("SAFERIDE_STOPPAGE_DISTANCE_M"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.StoppageDistanceThresholdM = parsed
		}
	}

	if val := os.Getenv("SAFERIDE_STOPPAGE_TIME_MINUTES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.StoppageTimeThresholdMinutes = parsed
		}
	}

	if val := os.Getenv("SAFERIDE_DEVIATION_THRESHOLD_KM"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.DeviationThresholdKm = parsed
		}
	}

	if val := os.Getenv("SAFERIDE_AUTO_SOS_ON_ANOMALY"); val != "" {
		config.AutoCreateSosOnAnomaly = val == "YES" || val == "true"
	}

	if val := os.Getenv("SAFERIDE_STOPPAGE_COOLDOWN"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			config.StoppageCooldown = parsed
		}
	}

	if val := os.Getenv("SAFERIDE_DEVIATION_COOLDOWN"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			config.DeviationCooldown = parsed
		}
	}

	return config
}

// Cooldown returns the debounce window for an alert type.
func (c DetectionConfig) Cooldown(alertType model.RouteAlertType) time.Duration {
	if alertType == model.RouteAlertTypeDeviation {
		return c.DeviationCooldown
	}

	return c.StoppageCooldown
}
