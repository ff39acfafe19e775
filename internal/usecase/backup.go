package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/semmidev/telos/internal/domain"
)

type UploadTarget struct {
	Name    string
	Storage domain.Storage
}

// Backup creates the pre-deployment database dump. The artifact lands in
// the backup directory named backup_<YYYYMMDD_HHMMSS>.<ext> and must exist
// before any source or container change happens; upload targets receive a
// copy (gzipped when compression is on) on a best-effort basis.
type Backup struct {
	db            domain.Database
	backupDir     string
	uploadTargets []UploadTarget
	compressor    domain.Compressor
	logger        Logger
	compress      bool

	now func() time.Time
}

func NewBackup(
	db domain.Database,
	backupDir string,
	uploadTargets []UploadTarget,
	compressor domain.Compressor,
	logger Logger,
	compress bool,
) *Backup {
	return &Backup{
		db:            db,
		backupDir:     backupDir,
		uploadTargets: uploadTargets,
		compressor:    compressor,
		logger:        logger,
		compress:      compress,
		now:           time.Now,
	}
}

func (uc *Backup) Execute(ctx context.Context) (string, error) {
	start := uc.now()
	dbName := uc.db.GetName()

	if err := uc.db.Ping(ctx); err != nil {
		return "", fmt.Errorf("database ping: %w", err)
	}

	filename := uc.generateFilename()
	outputPath := filepath.Join(uc.backupDir, filename)

	uc.logger.Infof("[%s] Creating backup: %s", dbName, outputPath)
	if err := uc.db.Dump(ctx, outputPath); err != nil {
		return "", fmt.Errorf("dump: %w", err)
	}

	fileInfo, err := os.Stat(outputPath)
	if err != nil {
		return "", fmt.Errorf("stat backup file: %w", err)
	}

	uc.logger.Infof("[%s] Backup created, size: %.2f MB",
		dbName, float64(fileInfo.Size())/(1024*1024))

	uploadPath, uploadName := outputPath, filename
	if uc.compress {
		uploadPath, uploadName, err = uc.compressForUpload(outputPath, filename)
		if err != nil {
			return "", err
		}
		defer os.Remove(uploadPath)
	}

	if len(uc.uploadTargets) > 0 {
		uc.uploadToTargets(ctx, uploadPath, uploadName)
	}

	uc.logger.Infof("[%s] Backup completed in %s: %s",
		dbName, uc.now().Sub(start).Round(time.Second), filename)

	return outputPath, nil
}

func (uc *Backup) generateFilename() string {
	timestamp := uc.now().Format("20060102_150405")

	ext := map[string]string{
		"postgresql": ".sql",
		"mysql":      ".sql",
	}[uc.db.GetType()]
	if ext == "" {
		ext = ".backup"
	}

	return "backup_" + timestamp + ext
}

// compressForUpload gzips a copy of the dump for remote targets; the plain
// artifact stays on disk untouched.
func (uc *Backup) compressForUpload(outputPath, filename string) (string, string, error) {
	compressedName := filename + ".gz"
	compressedPath := filepath.Join(os.TempDir(), compressedName)

	uc.logger.Infof("[%s] Compressing backup for upload...", uc.db.GetName())
	if err := uc.compressor.Compress(outputPath, compressedPath); err != nil {
		return "", "", fmt.Errorf("compression: %w", err)
	}

	return compressedPath, compressedName, nil
}

func (uc *Backup) uploadToTargets(ctx context.Context, filePath, filename string) {
	var wg sync.WaitGroup
	dbName := uc.db.GetName()

	for _, target := range uc.uploadTargets {
		wg.Add(1)
		go func(t UploadTarget) {
			defer wg.Done()

			uc.logger.Infof("[%s] Uploading backup to %s...", dbName, t.Name)
			if err := t.Storage.Upload(ctx, filePath, filename); err != nil {
				uc.logger.Errorf("[%s] Failed to upload to %s: %v", dbName, t.Name, err)
			} else {
				uc.logger.Infof("[%s] Successfully uploaded to %s", dbName, t.Name)
			}
		}(target)
	}

	wg.Wait()
}
