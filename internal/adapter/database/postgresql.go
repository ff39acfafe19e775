package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/semmidev/telos/internal/config"
)

type PostgreSQLDatabase struct {
	config config.DatabaseConfig
}

func NewPostgreSQL(cfg config.DatabaseConfig) *PostgreSQLDatabase {
	return &PostgreSQLDatabase{config: cfg}
}

// Dump writes a plain SQL dump to outputPath. Credentials left empty in the
// config are resolved from the environment loaded earlier in the run
// (DB_USER, DB_PASSWORD, DB_NAME).
func (p *PostgreSQLDatabase) Dump(ctx context.Context, outputPath string) error {
	cfg := p.config.ResolveEnv()

	cmd := exec.CommandContext(ctx, "pg_dump",
		fmt.Sprintf("--host=%s", cfg.Host),
		fmt.Sprintf("--port=%d", cfg.Port),
		fmt.Sprintf("--username=%s", cfg.Username),
		"--format=plain",
		"--no-owner",
		fmt.Sprintf("--file=%s", outputPath),
		cfg.Database,
	)

	cmd.Env = append(os.Environ(), fmt.Sprintf("PGPASSWORD=%s", cfg.Password))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pg_dump failed: %w, output: %s", err, string(output))
	}

	return nil
}

func (p *PostgreSQLDatabase) GetName() string {
	return p.config.ResolveEnv().Database
}

func (p *PostgreSQLDatabase) GetType() string {
	return "postgresql"
}

func (p *PostgreSQLDatabase) Ping(ctx context.Context) error {
	cfg := p.config.ResolveEnv()

	cmd := exec.CommandContext(ctx, "psql",
		fmt.Sprintf("--host=%s", cfg.Host),
		fmt.Sprintf("--port=%d", cfg.Port),
		fmt.Sprintf("--username=%s", cfg.Username),
		"--dbname=postgres",
		"-c", "SELECT 1",
	)

	cmd.Env = append(os.Environ(), fmt.Sprintf("PGPASSWORD=%s", cfg.Password))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("postgresql ping failed: %w", err)
	}

	return nil
}
