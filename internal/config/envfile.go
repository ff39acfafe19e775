package config

import (
	"fmt"
	"os"

	"github.com/subosito/gotenv"
)

// EnvFile loads variable definitions from a .env.production style file into
// the process environment. Later pipeline steps (pg_dump, compose exec) read
// their credentials from it.
type EnvFile struct {
	Path string
}

func (e EnvFile) Load() error {
	if _, err := os.Stat(e.Path); err != nil {
		return fmt.Errorf("environment file %s: %w", e.Path, err)
	}
	if err := gotenv.Load(e.Path); err != nil {
		return fmt.Errorf("load environment file %s: %w", e.Path, err)
	}
	return nil
}

// SecurityWarnings flags placeholder secrets that were never changed from
// their shipped defaults. These are warnings, not failures.
func (e EnvFile) SecurityWarnings() []string {
	var warnings []string

	if os.Getenv("SECRET_KEY") == "change_this_to_a_secure_secret_key" {
		warnings = append(warnings, "default secret key in use")
	}
	if os.Getenv("DB_PASSWORD") == "change_this_password" {
		warnings = append(warnings, "default database password in use")
	}
	if os.Getenv("FLASK_DEBUG") == "1" {
		warnings = append(warnings, "debug mode enabled in production")
	}

	return warnings
}

// ResolveEnv fills unset database fields from the loaded environment, so the
// config file does not have to duplicate what the env file already defines.
func (d DatabaseConfig) ResolveEnv() DatabaseConfig {
	resolved := d

	if resolved.Username == "" {
		resolved.Username = os.Getenv("DB_USER")
	}
	if resolved.Password == "" {
		resolved.Password = os.Getenv("DB_PASSWORD")
	}
	if resolved.Database == "" {
		resolved.Database = os.Getenv("DB_NAME")
	}

	return resolved
}
