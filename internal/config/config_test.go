package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeFile(t, "config.yaml", "workers: 4\nbatch_size: 250\npartition: hash\nskip_log: /tmp/skips.csv\n")

	c := Default()
	if err := c.LoadFromFile(path, nil); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Workers != 4 || c.BatchSize != 250 {
		t.Errorf("unexpected tuning: workers=%d batch=%d", c.Workers, c.BatchSize)
	}
	if c.Partition != PartitionHash {
		t.Errorf("partition: got %q", c.Partition)
	}
	if c.SkipLog != "/tmp/skips.csv" {
		t.Errorf("skip log: got %q", c.SkipLog)
	}
	// absent keys keep their defaults
	if c.QueueSize != DefaultQueueSize || c.Encoding != DefaultEncoding {
		t.Errorf("defaults overwritten: queue=%d encoding=%q", c.QueueSize, c.Encoding)
	}
}

func TestLoadFromFile_FlagsWin(t *testing.T) {
	path := writeFile(t, "config.yaml", "workers: 4\nbatch_size: 250\n")

	c := Default()
	c.Workers = 16
	changed := func(flag string) bool { return flag == "workers" }
	if err := c.LoadFromFile(path, changed); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Workers != 16 {
		t.Errorf("explicit flag overridden by file: workers=%d", c.Workers)
	}
	if c.BatchSize != 250 {
		t.Errorf("file value not applied: batch=%d", c.BatchSize)
	}
}

func TestLoadFromFile_Empty(t *testing.T) {
	path := writeFile(t, "config.yaml", "")
	c := Default()
	if err := c.LoadFromFile(path, nil); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Workers != DefaultWorkers {
		t.Errorf("workers: got %d", c.Workers)
	}
}

func TestLoadFromFile_UnknownKey(t *testing.T) {
	path := writeFile(t, "config.yaml", "workerz: 3\n")
	c := Default()
	if err := c.LoadFromFile(path, nil); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	c := Default()
	if err := c.LoadFromFile("/nonexistent/config.yaml", nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	logPath := writeFile(t, "mongod.log", "")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"no file", func(c *Config) { c.FilePath = "" }, true},
		{"missing file", func(c *Config) { c.FilePath = "/nonexistent/mongod.log" }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, true},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, true},
		{"zero parse workers", func(c *Config) { c.ParseWorkers = 0 }, true},
		{"bad partition", func(c *Config) { c.Partition = "random" }, true},
		{"hash partition", func(c *Config) { c.Partition = PartitionHash }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.FilePath = logPath
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateWithURI(t *testing.T) {
	logPath := writeFile(t, "mongod.log", "")

	c := Default()
	c.FilePath = logPath
	if err := c.ValidateWithURI(); err == nil {
		t.Fatal("expected error without target and uri")
	}

	c.Target = "mydb.logs"
	if err := c.ValidateWithURI(); err == nil {
		t.Fatal("expected error without uri")
	}

	c.URI = "localhost:27017"
	if err := c.ValidateWithURI(); err == nil {
		t.Fatal("expected error for uri without scheme")
	}

	c.URI = "mongodb://localhost:27017"
	if err := c.ValidateWithURI(); err != nil {
		t.Fatalf("ValidateWithURI: %v", err)
	}

	c.Target = "nodot"
	if err := c.ValidateWithURI(); err == nil {
		t.Fatal("expected error for malformed target")
	}
}

func TestParsedTarget(t *testing.T) {
	c := Config{Target: "mydb.slow.queries"}
	tgt, err := c.ParsedTarget()
	if err != nil {
		t.Fatalf("ParsedTarget: %v", err)
	}
	if tgt.Database != "mydb" || tgt.Collection != "slow.queries" {
		t.Errorf("got %+v", tgt)
	}
}
