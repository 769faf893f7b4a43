package config

import (
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Pipeline *pipelineConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"cataloger"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string `envconfig:"CATALOGER_ADDRESS" default:":3443"`
	MetricsAddress  string `envconfig:"CATALOGER_METRICS_ADDRESS" default:":8080"`
	BaseUrl         string `envconfig:"CATALOGER_BASE_URL" default:"https://localhost:3443"`
	LogLevel        string `envconfig:"CATALOGER_LOG_LEVEL" default:"info"`
	MigrationFolder string `envconfig:"CATALOGER_MIGRATIONS_FOLDER" default:""`
}

type pipelineConfig struct {
	// Workers per queue. Extraction is the most expensive stage.
	ExtractionWorkers     int `envconfig:"CATALOGER_EXTRACTION_WORKERS" default:"2"`
	ClassificationWorkers int `envconfig:"CATALOGER_CLASSIFICATION_WORKERS" default:"4"`
	RetrainingWorkers     int `envconfig:"CATALOGER_RETRAINING_WORKERS" default:"1"`

	// Minimum number of extracted characters required before a document is
	// worth classifying. Shorter extractions fail the pipeline with
	// InsufficientContent.
	MinTextLength int `envconfig:"CATALOGER_MIN_TEXT_LENGTH" default:"50"`

	// Lower bound for recording a "related" cross-reference edge.
	RelatedThreshold float64 `envconfig:"CATALOGER_RELATED_THRESHOLD" default:"0.60"`

	// Feedback records required before a dataset becomes ready for training.
	MinReviewedItems int `envconfig:"CATALOGER_MIN_REVIEWED_ITEMS" default:"10"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config populated with defaults only, ignoring the
// environment. Used by tests.
func NewDefault() *Config {
	cfg := new(Config)
	if err := envconfig.Process("cataloger_test_unset", cfg); err != nil {
		panic(err)
	}
	return cfg
}
