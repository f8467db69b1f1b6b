package config

import "testing"

func TestDefaultValues(t *testing.T) {
	c := Default()
	if c.UnrollCount != defaultUnrollCount {
		t.Errorf("got %d, want %d", c.UnrollCount, defaultUnrollCount)
	}
	if c.UnrollStmts != defaultUnrollStmts {
		t.Errorf("got %d, want %d", c.UnrollStmts, defaultUnrollStmts)
	}
	if c.LogLevel != defaultLogLevel {
		t.Errorf("got %q, want %q", c.LogLevel, defaultLogLevel)
	}
}

func TestGenerateUnrollCap(t *testing.T) {
	c := &Config{UnrollCount: 64}
	if got := c.GenerateUnrollCap(); got != 64*generateCapMultiplier {
		t.Errorf("got %d, want %d", got, 64*generateCapMultiplier)
	}
}

func TestLoadWithMissingFileUsesDefaults(t *testing.T) {
	c, err := Load("/nonexistent/path/to/vrtlc.yaml")
	if err != nil {
		t.Fatalf("Load with a missing config path should not error, got %v", err)
	}
	if c.UnrollCount != defaultUnrollCount {
		t.Errorf("got %d, want %d", c.UnrollCount, defaultUnrollCount)
	}
}

func TestLoadWithEmptyPathUsesDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") should not error, got %v", err)
	}
	if c.UnrollStmts != defaultUnrollStmts {
		t.Errorf("got %d, want %d", c.UnrollStmts, defaultUnrollStmts)
	}
}

func TestNewLoggerDoesNotPanic(t *testing.T) {
	c := Default()
	c.LogFilename = t.TempDir() + "/vrtlc-test.log"
	logger := c.NewLogger()
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}
	logger.Info("config test log line")
}
