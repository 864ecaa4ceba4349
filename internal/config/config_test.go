package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/ranqr/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	ctx := context.Background()

	Convey("Given no file and no environment overrides", t, func() {
		Convey("When configuration is loaded", func() {
			cfg, err := config.Load(ctx)

			Convey("Then the defaults apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.DBPath, ShouldEqual, "ranqr.db")
				So(cfg.LogLevel, ShouldEqual, "info")
				So(cfg.AuditQueueSize, ShouldEqual, 1024)
				So(cfg.AuditIntervalSeconds, ShouldEqual, 300)
				So(cfg.TopControversialLimit, ShouldEqual, 20)
			})
		})
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	ctx := context.Background()
	t.Setenv("RANQR_ADDR", ":8123")
	t.Setenv("RANQR_DB_PATH", ":memory:")
	t.Setenv("RANQR_LOG_LEVEL", "debug")

	Convey("Given environment overrides", t, func() {
		Convey("When configuration is loaded", func() {
			cfg, err := config.Load(ctx)

			Convey("Then the environment wins over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":8123")
				So(cfg.DBPath, ShouldEqual, ":memory:")
				So(cfg.LogLevel, ShouldEqual, "debug")
				So(cfg.AuditQueueSize, ShouldEqual, 1024)
			})
		})
	})
}

func TestLoadFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "ranqr.yaml")
	if err := os.WriteFile(path, []byte("addr: \":7001\"\naudit_queue_size: 16\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RANQR_CONFIG", path)

	Convey("Given a YAML config file", t, func() {
		Convey("When configuration is loaded", func() {
			cfg, err := config.Load(ctx)

			Convey("Then the file overrides defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7001")
				So(cfg.AuditQueueSize, ShouldEqual, 16)
				So(cfg.DBPath, ShouldEqual, "ranqr.db")
			})
		})

		Convey("When the environment overrides the file", func() {
			t.Setenv("RANQR_ADDR", ":7002")
			cfg, err := config.Load(ctx)

			Convey("Then the environment wins", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7002")
			})
		})
	})
}

func TestLoadMissingFile(t *testing.T) {
	ctx := context.Background()
	t.Setenv("RANQR_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	Convey("Given a config path that does not exist", t, func() {
		Convey("When configuration is loaded", func() {
			_, err := config.Load(ctx)

			Convey("Then loading fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
