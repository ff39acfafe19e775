package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type listingStorage struct {
	mu      sync.Mutex
	files   []string
	deleted []string
}

func (l *listingStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	return nil
}

func (l *listingStorage) List(ctx context.Context) ([]string, error) {
	return l.files, nil
}

func (l *listingStorage) Delete(ctx context.Context, remoteName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deleted = append(l.deleted, remoteName)
	return nil
}

func TestCleanup(t *testing.T) {
	Convey("Given a cleanup use case", t, func() {
		ctx := context.Background()

		oldStamp := time.Now().AddDate(0, 0, -30).Format("20060102_150405")
		freshStamp := time.Now().Format("20060102_150405")

		local := &listingStorage{files: []string{
			"backup_" + oldStamp + ".sql",
			"deployment_report_" + oldStamp + ".json",
			"backup_" + freshStamp + ".sql",
			"notes.txt",
		}}

		Convey("When retention is set", func() {
			uc := NewCleanup(local, nil, nopLogger{}, 7)
			err := uc.Execute(ctx)

			Convey("It should delete only expired deployment artifacts", func() {
				So(err, ShouldBeNil)
				So(len(local.deleted), ShouldEqual, 2)
				So(local.deleted, ShouldContain, "backup_"+oldStamp+".sql")
				So(local.deleted, ShouldContain, "deployment_report_"+oldStamp+".json")
			})
		})

		Convey("When retention is disabled", func() {
			uc := NewCleanup(local, nil, nopLogger{}, 0)
			err := uc.Execute(ctx)

			Convey("It should not touch anything", func() {
				So(err, ShouldBeNil)
				So(len(local.deleted), ShouldEqual, 0)
			})
		})

		Convey("When remote targets are configured", func() {
			remote := &listingStorage{files: []string{"backup_" + oldStamp + ".sql.gz"}}
			uc := NewCleanup(local, []UploadTarget{{Name: "s3", Storage: remote}}, nopLogger{}, 7)

			err := uc.Execute(ctx)

			Convey("It should prune remote artifacts too", func() {
				So(err, ShouldBeNil)
				So(remote.deleted, ShouldContain, "backup_"+oldStamp+".sql.gz")
			})
		})

		Convey("Parsing artifact timestamps", func() {
			Convey("It should extract the embedded creation time", func() {
				ts, ok := artifactTimestamp("backup_20250101_030000.sql")
				So(ok, ShouldBeTrue)
				So(ts.Year(), ShouldEqual, 2025)

				ts, ok = artifactTimestamp("deployment_report_20250102_120000.json")
				So(ok, ShouldBeTrue)
				So(ts.Day(), ShouldEqual, 2)
			})

			Convey("It should ignore files that are not artifacts", func() {
				_, ok := artifactTimestamp("notes.txt")
				So(ok, ShouldBeFalse)

				_, ok = artifactTimestamp("backup_notatimestamp.sql")
				So(ok, ShouldBeFalse)
			})
		})
	})
}
