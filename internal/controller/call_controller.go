package controller

import (
	"time"

	"alrah-ai-be/internal/config"
	"alrah-ai-be/internal/dto"
	"alrah-ai-be/internal/pkg/logger"
	"alrah-ai-be/internal/pkg/serverutils"
	"alrah-ai-be/internal/voicecall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
)

const callTokenTTL = 6 * time.Hour

// ICallController issues voice-call access tokens and upgrades the realtime
// websocket.
type ICallController interface {
	RegisterRoutes(r fiber.Router)
	Token(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
}

type callController struct {
	cfg     *config.CallConfig
	hub     *voicecall.Hub
	handler *voicecall.Handler
	logger  logger.ILogger
}

func NewCallController(cfg *config.CallConfig, hub *voicecall.Hub, handler *voicecall.Handler, log logger.ILogger) ICallController {
	return &callController{
		cfg:     cfg,
		hub:     hub,
		handler: handler,
		logger:  log,
	}
}

func (c *callController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/call/v1")
	h.Post("token", c.Token)
	h.Get("status", c.Status)
	h.Get("ws", c.ServeWs)
}

// Token mints an HS256 access token carrying room-join grants, the shape the
// realtime media server verifies.
func (c *callController) Token(ctx *fiber.Ctx) error {
	var req dto.CallTokenRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	roomName := req.RoomName
	if roomName == "" {
		roomName = c.cfg.RoomName
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":     c.cfg.APIKey,
		"sub":     req.UserId,
		"user_id": req.UserId,
		"iat":     now.Unix(),
		"exp":     now.Add(callTokenTTL).Unix(),
		"video": map[string]interface{}{
			"room":     roomName,
			"roomJoin": true,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.APISecret))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create call token", dto.CallTokenResponse{
		Token:    signed,
		RoomName: roomName,
		WsUrl:    c.cfg.ServerURL,
	}))
}

func (c *callController) Status(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get call status", dto.CallStatusResponse{
		Status:        "ok",
		ActiveClients: c.hub.ActiveClients(),
	}))
}

// ServeWs authenticates the websocket handshake. Browsers cannot set headers
// on upgrade, so the token also comes as a query parameter.
func (c *callController) ServeWs(ctx *fiber.Ctx) error {
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(c.cfg.APISecret), nil
	})
	if err != nil || !token.Valid {
		c.logger.Warn("CallController", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.logger.Info("CallController", "Starting voice call session", map[string]interface{}{"user_id": userID})
			c.handler.ServeWs(conn, userID)
			c.logger.Info("CallController", "Voice call session ended", map[string]interface{}{"user_id": userID})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}
