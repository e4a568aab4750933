package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/juryrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.MaxResultsLimit, convey.ShouldEqual, 100)
			convey.So(cfg.StorageDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.SeedDemoData, convey.ShouldBeTrue)
			convey.So(cfg.StreamEnabled, convey.ShouldBeTrue)
			convey.So(cfg.ExportCron, convey.ShouldBeEmpty)
		})

		convey.Convey("Then the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		cases := []struct {
			name   string
			mutate func(*config.Config)
			msg    string
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }, "addr must not be empty"},
			{"zero queue", func(c *config.Config) { c.QueueSize = 0 }, "queue_size"},
			{"zero workers", func(c *config.Config) { c.WorkerCount = 0 }, "worker_count"},
			{"zero dedupe", func(c *config.Config) { c.DedupeSize = 0 }, "dedupe_size"},
			{"zero limit", func(c *config.Config) { c.MaxResultsLimit = 0 }, "max_results_limit"},
			{"bad log format", func(c *config.Config) { c.LogFormat = "xml" }, "log_format"},
			{"unknown driver", func(c *config.Config) { c.StorageDriver = "mongo" }, "unknown storage_driver"},
			{"file without path", func(c *config.Config) {
				c.StorageDriver = config.DriverFile
				c.StoragePath = ""
			}, "storage_path"},
			{"redis without addr", func(c *config.Config) {
				c.StorageDriver = config.DriverRedis
				c.RedisAddr = ""
			}, "redis_addr"},
			{"postgres without dsn", func(c *config.Config) { c.StorageDriver = config.DriverPostgres }, "postgres_dsn"},
			{"cron without path", func(c *config.Config) { c.ExportCron = "*/5 * * * *" }, "export_path"},
			{"malformed cron", func(c *config.Config) {
				c.ExportCron = "every five minutes"
				c.ExportPath = "rankings.json"
			}, "export_cron"},
		}

		for _, tc := range cases {
			convey.Convey("When the config has "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.msg)
				})
			})
		}

		convey.Convey("When sqlite has a path", func() {
			cfg.StorageDriver = config.DriverSQLite
			cfg.StoragePath = "state.db"

			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
