package server

import (
	"testing"

	"github.com/gofiber/fiber/v2/middleware/cors"
)

func TestCorsConfigWildcardOrigin(t *testing.T) {
	cfg := corsConfig("*")

	if cfg.AllowCredentials {
		t.Errorf("wildcard origin must not share credentials")
	}
	if cfg.AllowOrigins != "*" {
		t.Errorf("expected origins %q, got %q", "*", cfg.AllowOrigins)
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("cors.New panicked with wildcard defaults: %v", r)
		}
	}()
	_ = cors.New(cfg)
}

func TestCorsConfigConcreteOrigin(t *testing.T) {
	cfg := corsConfig("http://localhost:5173")

	if !cfg.AllowCredentials {
		t.Errorf("concrete origin should keep credential sharing")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("cors.New panicked with a concrete origin: %v", r)
		}
	}()
	_ = cors.New(cfg)
}
