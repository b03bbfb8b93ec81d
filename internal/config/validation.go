package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration with struct tags, then the rules tags cannot express.
func Validate(cfg *AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if cfg.Storage.Backend == "minio" {
		if cfg.MinIO.Endpoint == "" || cfg.MinIO.Bucket == "" {
			return errors.New("minio: endpoint and bucket are required when STORAGE_BACKEND=minio")
		}
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if cfg.Sweep.Timeout > cfg.Sweep.Interval {
		return fmt.Errorf("sweep: timeout %s exceeds interval %s", cfg.Sweep.Timeout, cfg.Sweep.Interval)
	}
	return nil
}

// formatValidationError reports the first failed field.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
