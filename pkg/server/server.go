// Package server exposes the collector over HTTP.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/osv-scanner/pkg/models"
	"github.com/osv-purl-collector/pkg/collector"
	"github.com/osv-purl-collector/pkg/osv"
	"go.uber.org/zap"
)

// Collector is what the handlers need from *collector.Collector.
type Collector interface {
	Collect(ctx context.Context, purls []string) (collector.CollectPackagesResponse, error)
	Vulnerability(ctx context.Context, id string) (models.Vulnerability, error)
}

// CollectPackagesRequest is the body of POST /api/v1/collect.
type CollectPackagesRequest struct {
	Purls []string `json:"purls"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// New builds the fiber app serving the collector API.
func New(c Collector, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "osv-collector",
		BodyLimit:    10 * 1024 * 1024,
		ReadTimeout:  60 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	app.Use(fiberrecover.New())
	app.Use(cors.New())
	app.Use(requestLogger(logger))

	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"status": "healthy",
		})
	})

	api := app.Group("/api/v1")
	api.Post("/collect", collectHandler(c))
	api.Get("/vulns/:id", vulnHandler(c))

	return app
}

func collectHandler(c Collector) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var req CollectPackagesRequest
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
		}

		resp, err := c.Collect(ctx.UserContext(), req.Purls)
		if err != nil {
			return err
		}
		return ctx.JSON(resp)
	}
}

func vulnHandler(c Collector) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id := ctx.Params("id")
		if id == "" {
			return fiber.NewError(fiber.StatusBadRequest, "vulnerability id is required")
		}

		vuln, err := c.Vulnerability(ctx.UserContext(), id)
		if err != nil {
			return err
		}
		return ctx.JSON(vuln)
	}
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			status = fe.Code
		case errors.Is(err, osv.ErrRequestFailed), errors.Is(err, osv.ErrResultCountMismatch):
			status = fiber.StatusBadGateway
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", ctx.Method()),
				zap.String("path", ctx.Path()),
				zap.Error(err))
		}

		return ctx.Status(status).JSON(ErrorResponse{
			Success: false,
			Message: err.Error(),
		})
	}
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		logger.Debug("request",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", ctx.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)))
		return err
	}
}
