package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"5000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Reference store
	StoreBackend string `envconfig:"STORE_BACKEND" default:"jsonfile"`
	StorePath    string `envconfig:"STORE_PATH" default:"face_data.json"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`

	// Face locator
	LocatorType string `envconfig:"LOCATOR_TYPE" default:"deepface"`
	DeepFaceURL string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`

	// Verification
	Threshold     float64       `envconfig:"THRESHOLD" default:"0.4"`
	MaxSamples    int           `envconfig:"MAX_SAMPLES" default:"20"`
	FrameStride   int           `envconfig:"FRAME_STRIDE" default:"2"`
	AutoEnroll    bool          `envconfig:"AUTO_ENROLL" default:"true"`
	Selection     string        `envconfig:"SELECTION" default:"largest"`
	VerifyTimeout time.Duration `envconfig:"VERIFY_TIMEOUT" default:"30s"`

	// Uploads and attendance log
	UploadDir     string `envconfig:"UPLOAD_DIR" default:"/tmp/attendance_videos"`
	AttendanceLog string `envconfig:"ATTENDANCE_LOG" default:"scans.csv"`

	// Video decoding
	FFmpegPath  string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	FFprobePath string `envconfig:"FFPROBE_PATH" default:"ffprobe"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "jsonfile", "postgres":
	default:
		return fmt.Errorf("load config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.StoreBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("load config: DATABASE_URL is required with STORE_BACKEND=postgres")
	}

	switch c.LocatorType {
	case "deepface", "mock":
	default:
		return fmt.Errorf("load config: unknown LOCATOR_TYPE %q", c.LocatorType)
	}

	switch c.Selection {
	case "largest", "first":
	default:
		return fmt.Errorf("load config: unknown SELECTION %q", c.Selection)
	}

	if c.Threshold <= 0 {
		return fmt.Errorf("load config: THRESHOLD must be positive")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
