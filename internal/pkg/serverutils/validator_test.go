package serverutils

import (
	"errors"
	"testing"

	"alrah-ai-be/internal/dto"

	"github.com/gofiber/fiber/v2"
)

func TestValidateRequestAllowsEmptySessionId(t *testing.T) {
	// Query endpoints create a session when none is given, so an empty
	// session id must pass validation.
	req := dto.TextQueryRequest{Query: "ما هو الدليل على الولاية؟"}
	if err := ValidateRequest(req); err != nil {
		t.Errorf("expected empty session id to validate, got %v", err)
	}
}

func TestValidateRequestRejectsMissingText(t *testing.T) {
	err := ValidateRequest(dto.SynthesizeRequest{})
	if err == nil {
		t.Fatalf("expected a validation error for missing text")
	}

	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		t.Fatalf("expected a fiber error, got %T", err)
	}
	if fiberErr.Code != fiber.StatusBadRequest {
		t.Errorf("expected status %d, got %d", fiber.StatusBadRequest, fiberErr.Code)
	}
}
