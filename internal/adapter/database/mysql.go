package database

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/semmidev/telos/internal/config"
)

type MySQLDatabase struct {
	config config.DatabaseConfig
}

func NewMySQL(cfg config.DatabaseConfig) *MySQLDatabase {
	return &MySQLDatabase{config: cfg}
}

func (m *MySQLDatabase) Dump(ctx context.Context, outputPath string) error {
	cfg := m.config.ResolveEnv()

	args := []string{
		fmt.Sprintf("--host=%s", cfg.Host),
		fmt.Sprintf("--port=%d", cfg.Port),
		fmt.Sprintf("--user=%s", cfg.Username),
		fmt.Sprintf("--password=%s", cfg.Password),
		"--single-transaction",
		"--quick",
		"--routines",
		"--triggers",
		fmt.Sprintf("--result-file=%s", outputPath),
		cfg.Database,
	}

	cmd := exec.CommandContext(ctx, "mysqldump", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mysqldump failed: %w, output: %s", err, string(output))
	}

	return nil
}

func (m *MySQLDatabase) GetName() string {
	return m.config.ResolveEnv().Database
}

func (m *MySQLDatabase) GetType() string {
	return "mysql"
}

func (m *MySQLDatabase) Ping(ctx context.Context) error {
	cfg := m.config.ResolveEnv()

	args := []string{
		fmt.Sprintf("--host=%s", cfg.Host),
		fmt.Sprintf("--port=%d", cfg.Port),
		fmt.Sprintf("--user=%s", cfg.Username),
		fmt.Sprintf("--password=%s", cfg.Password),
		"-e", "SELECT 1",
	}

	cmd := exec.CommandContext(ctx, "mysql", args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}

	return nil
}
