package serverutils

import (
	"errors"

	"alrah-ai-be/internal/apperrors"
	"alrah-ai-be/internal/constant"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps pipeline errors to HTTP statuses. User-facing
// messages stay in Arabic; the technical detail goes to the log, not the
// client.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		status := fiber.StatusInternalServerError
		message := constant.ErrGenericQueryAr

		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			status = fiber.StatusNotFound
			message = constant.ErrSessionNotFoundAr
		case errors.Is(err, apperrors.ErrTranscription):
			message = constant.ErrGenericVoiceAr
		case errors.Is(err, apperrors.ErrSynthesis):
			message = constant.ErrGenericTTSAr
		case errors.Is(err, apperrors.ErrEmbedding),
			errors.Is(err, apperrors.ErrRetrieval),
			errors.Is(err, apperrors.ErrCompletion),
			errors.Is(err, apperrors.ErrStorage):
			message = constant.ErrGenericQueryAr
		}

		return ctx.Status(status).JSON(ErrorResponse(message))
	}
}
