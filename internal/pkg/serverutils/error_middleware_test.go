package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"alrah-ai-be/internal/apperrors"
	"alrah-ai-be/internal/constant"

	"github.com/gofiber/fiber/v2"
)

func TestErrorHandlerMiddlewareMapsPipelineErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "missing session",
			err:         apperrors.Wrap(apperrors.ErrNotFound, errors.New("no row")),
			wantStatus:  fiber.StatusNotFound,
			wantMessage: constant.ErrSessionNotFoundAr,
		},
		{
			name:        "transcription failure",
			err:         apperrors.Wrap(apperrors.ErrTranscription, errors.New("whisper down")),
			wantStatus:  fiber.StatusInternalServerError,
			wantMessage: constant.ErrGenericVoiceAr,
		},
		{
			name:        "synthesis failure",
			err:         apperrors.Wrap(apperrors.ErrSynthesis, errors.New("tts down")),
			wantStatus:  fiber.StatusInternalServerError,
			wantMessage: constant.ErrGenericTTSAr,
		},
		{
			name:        "completion failure",
			err:         apperrors.Wrap(apperrors.ErrCompletion, errors.New("model down")),
			wantStatus:  fiber.StatusInternalServerError,
			wantMessage: constant.ErrGenericQueryAr,
		},
		{
			name:        "unclassified failure",
			err:         errors.New("boom"),
			wantStatus:  fiber.StatusInternalServerError,
			wantMessage: constant.ErrGenericQueryAr,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			path := fmt.Sprintf("/case-%d", i)
			failure := tt.err
			app.Get(path, func(ctx *fiber.Ctx) error {
				return failure
			})

			resp, err := app.Test(httptest.NewRequest("GET", path, nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}

			var body Response
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success {
				t.Errorf("expected success=false on error responses")
			}
			if body.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, body.Message)
			}
		})
	}
}

func TestErrorHandlerMiddlewareKeepsFiberErrors(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/bad", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "query is required")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/bad", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected status %d, got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}
