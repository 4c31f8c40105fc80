package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/signingday/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.TotalGrantUnits, convey.ShouldEqual, 5.0)
				convey.So(cfg.AutoDecide, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SIGNINGDAY_ADDR", ":8080")
			_ = os.Setenv("SIGNINGDAY_TOTAL_GRANT_UNITS", "4.5")
			_ = os.Setenv("SIGNINGDAY_ROSTER_SIZE_MAX", "12")
			_ = os.Setenv("SIGNINGDAY_ROSTER_SIZE_MIN", "10")
			_ = os.Setenv("SIGNINGDAY_AUTO_DECIDE", "false")
			_ = os.Setenv("SIGNINGDAY_COUNTER_THRESHOLD", "35")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TotalGrantUnits, convey.ShouldEqual, 4.5)
				convey.So(cfg.RosterSizeMax, convey.ShouldEqual, 12)
				convey.So(cfg.RosterSizeMin, convey.ShouldEqual, 10)
				convey.So(cfg.AutoDecide, convey.ShouldBeFalse)
				convey.So(cfg.CounterThreshold, convey.ShouldEqual, 35)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
total_grant_units: 6
coach_market_rate: 300000
level_full_pct: 90
redis_addr: "localhost:6379"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SIGNINGDAY_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.TotalGrantUnits, convey.ShouldEqual, 6.0)
				convey.So(cfg.CoachMarketRate, convey.ShouldEqual, 300000.0)
				convey.So(cfg.LevelFullPct, convey.ShouldEqual, 90.0)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.RosterSizeMax, convey.ShouldEqual, 15)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nmax_rounds: 8\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SIGNINGDAY_CONFIG", tmpFile)
			_ = os.Setenv("SIGNINGDAY_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxRounds, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SIGNINGDAY_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SIGNINGDAY_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-numeric grant pool", func() {
			_ = os.Setenv("SIGNINGDAY_TOTAL_GRANT_UNITS", "plenty")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config that fails validation", func() {
			_ = os.Setenv("SIGNINGDAY_TOTAL_GRANT_UNITS", "-1")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "total_grant_units")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"SIGNINGDAY_CONFIG",
		"SIGNINGDAY_ADDR",
		"SIGNINGDAY_TOTAL_GRANT_UNITS",
		"SIGNINGDAY_ROSTER_SIZE_MAX",
		"SIGNINGDAY_ROSTER_SIZE_MIN",
		"SIGNINGDAY_AUTO_DECIDE",
		"SIGNINGDAY_COUNTER_THRESHOLD",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "signingday-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
