package kadedb

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsBadPageSizeOnlyWhenPathSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageFile.PageSize = 100

	if err := cfg.Validate(); err != nil {
		t.Fatalf("in-memory config (empty PageFile.Path) should ignore pageSize bounds, got: %v", err)
	}

	cfg.PageFile.Path = "/tmp/kadedb.db"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error once Path is set and pageSize is out of bounds")
	}
}

func TestValidateRejectsBadQueryConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Query.DefaultPageSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero DefaultPageSize")
	}

	cfg = DefaultConfig()
	cfg.Query.MaxPageSize = cfg.Query.DefaultPageSize - 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when maxPageSize < defaultPageSize")
	}
}

func TestValidateRejectsZeroCacheCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageFile.CacheCapacity = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero cache capacity")
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Field: "query.maxPageSize", Message: "must be greater than or equal to defaultPageSize"}
	want := "config validation error for field 'query.maxPageSize': must be greater than or equal to defaultPageSize"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
