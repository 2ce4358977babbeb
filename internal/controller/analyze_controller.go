package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"insightai-be/internal/dto"
	"insightai-be/internal/pkg/logger"
	"insightai-be/internal/pkg/serverutils"
	"insightai-be/internal/service"
	internalWS "insightai-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IAnalyzeController interface {
	RegisterRoutes(r fiber.Router)
	Schema(ctx *fiber.Ctx) error
	Analyze(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
	Query(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	GetRun(ctx *fiber.Ctx) error
}

type analyzeController struct {
	service service.IAnalyzeService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewAnalyzeController(service service.IAnalyzeService, hub *internalWS.Hub, log logger.ILogger) IAnalyzeController {
	return &analyzeController{service: service, hub: hub, logger: log}
}

func (c *analyzeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/analyze/v1")
	h.Get("schema", c.Schema)
	h.Post("", c.Analyze)
	h.Post("stream", c.Stream)
	h.Get("ws", c.ServeWs)
	h.Post("query", c.Query)
	h.Get("history", c.History)
	h.Get("runs/:id", c.GetRun)
}

func (c *analyzeController) Schema(ctx *fiber.Ctx) error {
	res, err := c.service.Schema(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get schema", res))
}

func (c *analyzeController) Analyze(ctx *fiber.Ctx) error {
	req, err := parseAnalyzeRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Analyze(ctx.Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success analyze question", res))
}

// Stream answers with Server-Sent Events, one JSON event per data line. A
// failed flush means the client left; the run context is cancelled then.
func (c *analyzeController) Stream(ctx *fiber.Ctx) error {
	req, err := parseAnalyzeRequest(ctx)
	if err != nil {
		return err
	}

	// fasthttp keeps the request context alive past the handler, so the run
	// gets its own.
	runCtx, cancel := context.WithCancel(context.Background())
	runID, events := c.service.Stream(runCtx, req)

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")
	ctx.Set("X-Run-Id", runID.String())

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		for ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				c.logger.Error("AnalyzeController", "Failed to marshal stream event", map[string]interface{}{"run_id": runID, "error": err.Error()})
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			if err := w.Flush(); err != nil {
				c.logger.Info("AnalyzeController", "Stream client disconnected", map[string]interface{}{"run_id": runID})
				return
			}
		}
	}))

	return nil
}

// ServeWs upgrades to a websocket. Each {"question"} frame starts a run whose
// events are written back to the same connection.
func (c *analyzeController) ServeWs(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeWs(c.hub, conn, c.runOverSocket)
	})(ctx)
}

func (c *analyzeController) runOverSocket(ctx context.Context, question string, emit func(internalWS.Message) bool) {
	_, events := c.service.Stream(ctx, &dto.AnalyzeRequest{Question: question})
	// Keep draining after a failed emit; the run stops when the socket closes
	// and cancels ctx.
	for ev := range events {
		emit(internalWS.Message{Type: ev.Type, Node: ev.Node, Data: ev.Data})
	}
}

func (c *analyzeController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Sql = strings.TrimSpace(req.Sql)

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Query(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success execute query", res))
}

func (c *analyzeController) History(ctx *fiber.Ctx) error {
	var req dto.HistoryRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.History(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *analyzeController) GetRun(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid run id")
	}

	res, err := c.service.GetRun(ctx.Context(), id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "run not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get run", res))
}

func parseAnalyzeRequest(ctx *fiber.Ctx) (*dto.AnalyzeRequest, error) {
	var req dto.AnalyzeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, err
	}
	// A whitespace-only question is treated as missing.
	req.Question = strings.TrimSpace(req.Question)

	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}
