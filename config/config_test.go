package config

import (
	"reflect"
	"testing"
)

func TestApplyEnvironDefaults(t *testing.T) {
	cfg, err := loadFromEnviron(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("applyEnviron(nil) = %+v, want %+v", cfg, want)
	}
}

func TestApplyEnvironOverrides(t *testing.T) {
	environ := []string{
		"ENABLE=false",
		"DEBUG=true",
		"FAIL_IF_MISSING=1",
		"VECTORS=0",
		"BANNED=1,2, 3",
		"SERVER=example.test:9000",
	}
	cfg, err := loadFromEnviron(environ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Enable {
		t.Errorf("Enable = true, want false")
	}
	if !cfg.Debug {
		t.Errorf("Debug = false, want true")
	}
	if !cfg.FailIfMissing {
		t.Errorf("FailIfMissing = false, want true")
	}
	if cfg.Vectors {
		t.Errorf("Vectors = true, want false")
	}
	if got, want := cfg.Banned, []uint{1, 2, 3}; !equalUints(got, want) {
		t.Errorf("Banned = %v, want %v", got, want)
	}
	if cfg.Server != "example.test:9000" {
		t.Errorf("Server = %q, want %q", cfg.Server, "example.test:9000")
	}
}

func TestApplyEnvironInvalidBoolIsEnvironmentError(t *testing.T) {
	_, err := loadFromEnviron([]string{"DEBUG=maybe"})
	if err == nil {
		t.Fatal("expected an error for DEBUG=maybe")
	}
	var envErr *EnvironmentError
	if !asEnvironmentError(err, &envErr) {
		t.Fatalf("error %v is not an *EnvironmentError", err)
	}
	if envErr.Variable != "DEBUG" {
		t.Errorf("Variable = %q, want DEBUG", envErr.Variable)
	}
}

func equalUints(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func asEnvironmentError(err error, target **EnvironmentError) bool {
	e, ok := err.(*EnvironmentError)
	if !ok {
		return false
	}
	*target = e
	return true
}
