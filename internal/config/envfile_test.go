package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEnvFile(t *testing.T) {
	Convey("Given an environment file", t, func() {
		dir := t.TempDir()

		Convey("When it exists and defines variables", func() {
			path := filepath.Join(dir, ".env.production")
			content := "TELOS_TEST_VAR=loaded\n"
			So(os.WriteFile(path, []byte(content), 0644), ShouldBeNil)
			t.Setenv("TELOS_TEST_VAR", "")
			os.Unsetenv("TELOS_TEST_VAR")

			err := EnvFile{Path: path}.Load()

			Convey("It should load them into the process environment", func() {
				So(err, ShouldBeNil)
				So(os.Getenv("TELOS_TEST_VAR"), ShouldEqual, "loaded")
			})
		})

		Convey("When it does not exist", func() {
			err := EnvFile{Path: filepath.Join(dir, "missing.env")}.Load()

			Convey("It should fail with the file path", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "missing.env")
			})
		})
	})
}

func TestSecurityWarnings(t *testing.T) {
	Convey("Given a loaded environment", t, func() {
		envFile := EnvFile{}

		Convey("When the placeholder secrets were never changed", func() {
			t.Setenv("SECRET_KEY", "change_this_to_a_secure_secret_key")
			t.Setenv("DB_PASSWORD", "change_this_password")
			t.Setenv("FLASK_DEBUG", "1")

			warnings := envFile.SecurityWarnings()

			Convey("It should flag all three", func() {
				So(warnings, ShouldResemble, []string{
					"default secret key in use",
					"default database password in use",
					"debug mode enabled in production",
				})
			})
		})

		Convey("When the secrets were rotated", func() {
			t.Setenv("SECRET_KEY", "a-real-secret")
			t.Setenv("DB_PASSWORD", "a-real-password")
			t.Setenv("FLASK_DEBUG", "0")

			Convey("It should report nothing", func() {
				So(envFile.SecurityWarnings(), ShouldBeEmpty)
			})
		})
	})
}

func TestResolveEnv(t *testing.T) {
	Convey("Given a database config", t, func() {
		t.Setenv("DB_USER", "env_user")
		t.Setenv("DB_PASSWORD", "env_password")
		t.Setenv("DB_NAME", "env_db")

		Convey("When the credentials are unset", func() {
			resolved := DatabaseConfig{Host: "localhost", Port: 5432}.ResolveEnv()

			Convey("It should fill them from the environment", func() {
				So(resolved.Username, ShouldEqual, "env_user")
				So(resolved.Password, ShouldEqual, "env_password")
				So(resolved.Database, ShouldEqual, "env_db")
				So(resolved.Host, ShouldEqual, "localhost")
			})
		})

		Convey("When the config sets its own credentials", func() {
			resolved := DatabaseConfig{
				Username: "cfg_user",
				Password: "cfg_password",
				Database: "cfg_db",
			}.ResolveEnv()

			Convey("It should keep the configured values", func() {
				So(resolved.Username, ShouldEqual, "cfg_user")
				So(resolved.Password, ShouldEqual, "cfg_password")
				So(resolved.Database, ShouldEqual, "cfg_db")
			})
		})
	})
}
