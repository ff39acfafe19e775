package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/semmidev/telos/internal/domain"
)

var artifactNamePattern = regexp.MustCompile(`^(backup|deployment_report)_(\d{8})_(\d{6})`)

// Cleanup prunes deployment artifacts older than the retention window from
// the local directory and every upload target. Retention of zero disables
// pruning entirely.
type Cleanup struct {
	local         domain.Storage
	uploadTargets []UploadTarget
	logger        Logger
	retentionDays int
}

func NewCleanup(
	local domain.Storage,
	uploadTargets []UploadTarget,
	logger Logger,
	retentionDays int,
) *Cleanup {
	return &Cleanup{
		local:         local,
		uploadTargets: uploadTargets,
		logger:        logger,
		retentionDays: retentionDays,
	}
}

func (uc *Cleanup) Execute(ctx context.Context) error {
	if uc.retentionDays <= 0 {
		return nil
	}

	uc.logger.Infof("Starting artifact cleanup, retention: %d days", uc.retentionDays)
	cutoff := time.Now().AddDate(0, 0, -uc.retentionDays)

	targets := append([]UploadTarget{{Name: "local", Storage: uc.local}}, uc.uploadTargets...)

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(t UploadTarget) {
			defer wg.Done()

			if err := uc.cleanupTarget(ctx, t, cutoff); err != nil {
				uc.logger.Errorf("Cleanup failed for %s: %v", t.Name, err)
			}
		}(target)
	}
	wg.Wait()

	uc.logger.Infof("Cleanup completed")
	return nil
}

func (uc *Cleanup) cleanupTarget(ctx context.Context, target UploadTarget, cutoff time.Time) error {
	files, err := target.Storage.List(ctx)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	deleted := 0
	for _, filename := range files {
		timestamp, ok := artifactTimestamp(filename)
		if !ok || !timestamp.Before(cutoff) {
			continue
		}

		uc.logger.Infof("Deleting old artifact from %s: %s", target.Name, filename)
		if err := target.Storage.Delete(ctx, filename); err != nil {
			uc.logger.Errorf("Failed to delete %s from %s: %v", filename, target.Name, err)
		} else {
			deleted++
		}
	}

	uc.logger.Infof("Deleted %d old artifact(s) from %s", deleted, target.Name)
	return nil
}

// artifactTimestamp parses the embedded creation time of a backup or report
// file name. Files that are not deployment artifacts are left alone.
func artifactTimestamp(filename string) (time.Time, bool) {
	matches := artifactNamePattern.FindStringSubmatch(filename)
	if len(matches) < 4 {
		return time.Time{}, false
	}

	timestamp, err := time.Parse("20060102_150405", matches[2]+"_"+matches[3])
	if err != nil {
		return time.Time{}, false
	}
	return timestamp, true
}
