package checklist

import (
	"context"
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestChecklist(t *testing.T) {
	Convey("Given a pre-flight checklist", t, func() {
		ctx := context.Background()

		Convey("CheckTools", func() {
			c := New([]string{"python3", "scripts/production_checklist.py"},
				[]string{"docker", "git", "pg_dump"})

			Convey("When every tool is on PATH", func() {
				c.lookup = func(file string) (string, error) {
					return "/usr/bin/" + file, nil
				}

				Convey("It should pass", func() {
					So(c.CheckTools(ctx), ShouldBeNil)
				})
			})

			Convey("When some tools are missing", func() {
				c.lookup = func(file string) (string, error) {
					if file == "git" {
						return "/usr/bin/git", nil
					}
					return "", fmt.Errorf("exec: %q: executable file not found in $PATH", file)
				}
				err := c.CheckTools(ctx)

				Convey("It should name every missing tool", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "required tools not installed")
					So(err.Error(), ShouldContainSubstring, "docker, pg_dump")
					So(err.Error(), ShouldNotContainSubstring, "git,")
				})
			})
		})

		Convey("Run", func() {
			var gotName string
			var gotArgs []string
			runErr := error(nil)

			c := New([]string{"python3", "scripts/production_checklist.py"}, nil)
			c.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
				gotName = name
				gotArgs = args
				return []byte("3 checks failed"), runErr
			}

			Convey("When the checklist passes", func() {
				err := c.Run(ctx)

				Convey("It should invoke the configured command", func() {
					So(err, ShouldBeNil)
					So(gotName, ShouldEqual, "python3")
					So(gotArgs, ShouldResemble, []string{"scripts/production_checklist.py"})
				})
			})

			Convey("When the checklist exits non-zero", func() {
				runErr = errors.New("exit status 1")
				err := c.Run(ctx)

				Convey("It should fail with the checklist output", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "production checklist failed")
					So(err.Error(), ShouldContainSubstring, "3 checks failed")
				})
			})

			Convey("When no command is configured", func() {
				empty := New(nil, nil)
				err := empty.Run(ctx)

				Convey("It should refuse to run", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "not configured")
				})
			})
		})
	})
}
