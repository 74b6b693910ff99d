package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soundsift/soundsift/internal/matching"
	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/shared"
	tu "github.com/soundsift/soundsift/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
		})
	})
}

// writeLibraryFile writes a library snapshot for file-backed command tests.
func writeLibraryFile(t *testing.T, dir, name string, lib models.Library) string {
	t.Helper()

	data, err := json.Marshal(lib)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(dir string) *shared.Config {
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "cache.db")
	config.Output.Dir = filepath.Join(dir, "reports")
	return config
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()

	source := models.Library{
		Name:     "spotify export",
		Platform: models.PlatformSpotify,
		Tracks: []models.Track{
			{Title: "Let It Be", Artists: []string{"The Beatles"}, Duration: 243, Platform: models.PlatformSpotify, NativeID: "sp1"},
			{Title: "Yesterday", Artists: []string{"The Beatles"}, Duration: 125, Platform: models.PlatformSpotify, NativeID: "sp2"},
		},
	}
	target := models.Library{
		Name:     "youtube library",
		Platform: models.PlatformYouTubeMusic,
		Tracks: []models.Track{
			{Title: "Let It Be", Artists: []string{"The Beatles"}, Duration: 244, Platform: models.PlatformYouTubeMusic, NativeID: "v1"},
		},
	}
	sourcePath := writeLibraryFile(t, dir, "source.json", source)
	targetPath := writeLibraryFile(t, dir, "target.json", target)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: testConfig(dir),
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
	})

	app := runner.register()
	var compare func() error
	for _, cmd := range app {
		if cmd.Name == "compare" {
			c := cmd
			compare = func() error {
				return c.Run(context.Background(), []string{"compare", "--source", sourcePath, "--target", targetPath, "--format", "md"})
			}
		}
	}
	if compare == nil {
		t.Fatal("compare command not registered")
	}

	if err := compare(); err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	report := output.String()
	if !strings.Contains(report, "**Matched**: 1") {
		t.Errorf("expected 1 match in report, got: %s", report)
	}
	if !strings.Contains(report, "Yesterday") {
		t.Errorf("expected Yesterday listed as missing, got: %s", report)
	}
}

func TestDedupeCommand(t *testing.T) {
	dir := t.TempDir()

	lib := models.Library{
		Name:     "youtube library",
		Platform: models.PlatformYouTubeMusic,
		Tracks: []models.Track{
			{Title: "Creep", Artists: []string{"Radiohead"}, Duration: 238, Platform: models.PlatformYouTubeMusic, NativeID: "v1"},
			{Title: "Creep", Artists: []string{"Radiohead"}, Duration: 239, Platform: models.PlatformYouTubeMusic, NativeID: "v2"},
		},
	}
	libPath := writeLibraryFile(t, dir, "library.json", lib)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: testConfig(dir),
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
	})

	for _, cmd := range runner.register() {
		if cmd.Name != "dedupe" {
			continue
		}
		err := cmd.Run(context.Background(), []string{"dedupe", "--library", libPath, "--format", "md"})
		if err != nil {
			t.Fatalf("dedupe failed: %v", err)
		}
	}

	report := output.String()
	if !strings.Contains(report, "**Groups**: 1") {
		t.Errorf("expected 1 duplicate group, got: %s", report)
	}
	if !strings.Contains(report, "(keep)") {
		t.Errorf("expected a designated winner, got: %s", report)
	}

	// --save writes the report into the output directory instead.
	saver := NewRunner(RunnerOpts{
		Config: testConfig(dir),
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: &bytes.Buffer{},
	})
	for _, cmd := range saver.register() {
		if cmd.Name != "dedupe" {
			continue
		}
		if err := cmd.Run(context.Background(), []string{"dedupe", "--library", libPath, "--save"}); err != nil {
			t.Fatalf("dedupe --save failed: %v", err)
		}
	}
	tu.AssertDirExists(t, saver.config.Output.Dir)
}

func TestSetupCommand(t *testing.T) {
	dir := t.TempDir()
	wd := tu.MustGetwd(t)
	tu.MustChdir(t, dir)
	defer tu.MustChdir(t, wd)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
	})

	for _, cmd := range runner.register() {
		if cmd.Name != "setup" {
			continue
		}
		if err := cmd.Run(context.Background(), []string{"setup"}); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}

	tu.AssertFileExists(t, "config.toml")
	tu.AssertFileExists(t, runner.config.Database.Path)
	if !strings.Contains(output.String(), "Configuration ready") {
		t.Errorf("unexpected output: %s", output.String())
	}
}

func TestModeFromFlagValidation(t *testing.T) {
	runner := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: &bytes.Buffer{},
	})
	runner.config.Policy.Mode = "strict"

	// No flag set falls through to the config mode.
	for _, cmd := range runner.register() {
		if cmd.Name != "dedupe" {
			continue
		}
		mode, err := runner.modeFrom(cmd)
		if err != nil {
			t.Fatalf("modeFrom failed: %v", err)
		}
		if mode != matching.ModeStrict {
			t.Errorf("expected strict from config, got %s", mode)
		}
	}
}
