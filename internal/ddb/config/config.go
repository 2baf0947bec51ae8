package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/constants"
	"gopkg.in/yaml.v3"
)

// Config holds everything a run needs. It is built once at startup and passed
// down by value.
type Config struct {
	AwsRegion string `yaml:"region"`
	// EndpointUrl points the client at DynamoDB Local or another compatible
	// endpoint. Static credentials are used when it is set.
	EndpointUrl string   `yaml:"endpointUrl"`
	Tables      []string `yaml:"tables"`
	Workers     int      `yaml:"workers"`
	PageSize    int32    `yaml:"pageSize"`
	LogLevel    string   `yaml:"logLevel"`
	AssumeYes   bool     `yaml:"assumeYes"`
}

func Default() Config {
	return Config{
		AwsRegion: constants.DefaultAwsRegion,
		Tables:    slices.Clone(constants.DefaultTables),
		Workers:   constants.DefaultWorkers,
		LogLevel:  constants.DefaultLogLevel,
	}
}

// Load reads a YAML file over the defaults. Fields absent from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.AwsRegion == "" {
		errs = append(errs, errors.New("region must not be empty"))
	}
	if len(c.Tables) == 0 {
		errs = append(errs, errors.New("at least one table is required"))
	}
	seen := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		if t == "" {
			errs = append(errs, errors.New("table name must not be empty"))
			continue
		}
		if seen[t] {
			errs = append(errs, fmt.Errorf("table %q listed more than once", t))
		}
		seen[t] = true
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.PageSize < 0 {
		errs = append(errs, fmt.Errorf("page size must not be negative, got %d", c.PageSize))
	}
	return errors.Join(errs...)
}
