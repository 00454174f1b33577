package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/papapumpkin/aprx/internal/mapview"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"WorkDir", cfg.WorkDir, ""},
		{"Verbose", cfg.Verbose, false},
		{"Workers", cfg.Workers, 4},
		{"ResultsDB", cfg.ResultsDB, ".aprx/results.db"},
		{"TelemetryDir", cfg.TelemetryDir, ".aprx/telemetry"},
		{"Baseline", cfg.Baseline, "baseline.toml"},
		{"ArchiveGlob", cfg.ArchiveGlob, "*.aprx"},
		{"Tolerance", cfg.Tolerance, mapview.Tolerance{}},
		{"MemoSize", cfg.MemoSize, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "work_dir",
			envKey: "APRX_WORK_DIR",
			envVal: "/tmp/work",
			field:  func(c Config) any { return c.WorkDir },
			want:   "/tmp/work",
		},
		{
			name:   "workers",
			envKey: "APRX_WORKERS",
			envVal: "9",
			field:  func(c Config) any { return c.Workers },
			want:   9,
		},
		{
			name:   "results_db",
			envKey: "APRX_RESULTS_DB",
			envVal: "/var/lib/aprx.db",
			field:  func(c Config) any { return c.ResultsDB },
			want:   "/var/lib/aprx.db",
		},
		{
			name:   "archive_glob",
			envKey: "APRX_ARCHIVE_GLOB",
			envVal: "*.zip",
			field:  func(c Config) any { return c.ArchiveGlob },
			want:   "*.zip",
		},
		{
			name:   "verbose",
			envKey: "APRX_VERBOSE",
			envVal: "true",
			field:  func(c Config) any { return c.Verbose },
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			// Set env prefix so APRX_* env vars map to config keys.
			viper.SetEnvPrefix("APRX")
			viper.AutomaticEnv()

			t.Setenv(tt.envKey, tt.envVal)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			got := tt.field(cfg)
			if got != tt.want {
				t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	resetViper()

	path := filepath.Join(t.TempDir(), ".aprx.yaml")
	data := "workers: 2\nbaseline: tp1.toml\ntolerance:\n  x: 50\n  y: 50\n  scale: 1000\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Workers != 2 || cfg.Baseline != "tp1.toml" {
		t.Errorf("cfg = %+v", cfg)
	}
	want := mapview.Tolerance{X: 50, Y: 50, Scale: 1000}
	if cfg.Tolerance != want {
		t.Errorf("Tolerance = %+v, want %+v", cfg.Tolerance, want)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		key string
		val any
	}{
		{"workers", 0},
		{"memo_size", -1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			resetViper()
			viper.Set(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%v succeeded, want error", tt.key, tt.val)
			}
		})
	}
}
