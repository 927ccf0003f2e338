package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"token-holders/internal/holders/coordinator"
	"token-holders/internal/holders/ledger"
	"token-holders/internal/holders/model"
	"token-holders/internal/holders/view"
	"token-holders/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
)

const maxLimit = 1000

// GetEndpoint handles GET /api/v1/endpoint
func (s *Server) GetEndpoint(c *fiber.Ctx) error {
	return c.JSON(s.ledger.CurrentEndpointInfo())
}

// GetTokenHolders handles GET /api/v1/tokens/:address/holders
// query: sort, dir, search, limit
func (s *Server) GetTokenHolders(c *fiber.Ctx) error {
	address := strings.TrimSpace(c.Params("address"))
	if address == "" {
		return fiber.NewError(fiber.StatusBadRequest, "address parameter is required")
	}
	if !s.ledger.ValidateAddressSyntax(address) {
		return fiber.NewError(fiber.StatusBadRequest, ledger.MsgInvalidAddress)
	}

	field, err := model.ParseSortField(c.Query("sort"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	dir, err := model.ParseSortDirection(c.Query("dir"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > maxLimit {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 1000")
	}
	search := strings.TrimSpace(c.Query("search"))

	ctx, span := logger.StartSpanWithHeaders(c.UserContext(), http.Header(c.GetReqHeaders()), coordinator.TracerName, "api.holders")
	defer span.End()
	span.SetAttributes(attribute.String("token", address))

	result, err := s.lookup(ctx, address)
	if err != nil {
		span.RecordError(err)
		return err
	}

	cfg := model.SortConfig{Field: field, Direction: dir}
	v := view.Project(result.Rows, cfg, search)
	matched := len(v.Rows)
	if len(v.Rows) > limit {
		v.Rows = v.Rows[:limit]
	}

	return c.JSON(HoldersResponse{
		Token:     result.Metadata,
		Stats:     v.Stats,
		Sort:      cfg,
		Search:    search,
		Matched:   matched,
		Rows:      v.Rows,
		Endpoint:  s.ledger.CurrentEndpointInfo(),
		FetchedAt: result.FetchedAt,
	})
}

// lookup runs a fresh coordinator per request, so concurrent requests never
// supersede each other and nothing derived outlives the request.
func (s *Server) lookup(ctx context.Context, address string) (*model.QueryResult, error) {
	coord := coordinator.New(s.ledger, s.opts(), s.tl)
	result, err := coord.Submit(ctx, address)
	if err != nil {
		return nil, lookupError(coord.State().Message, err)
	}
	return result, nil
}

func lookupError(message string, err error) error {
	if message == "" {
		message = coordinator.FallbackMessage
	}
	var qe *ledger.QueryError
	if errors.As(err, &qe) {
		switch qe.Message {
		case ledger.MsgInvalidAddress:
			return fiber.NewError(fiber.StatusBadRequest, message)
		case ledger.MsgTokenNotFound:
			return fiber.NewError(fiber.StatusNotFound, message)
		case ledger.MsgTimeout:
			return fiber.NewError(fiber.StatusGatewayTimeout, message)
		}
	}
	return fiber.NewError(fiber.StatusBadGateway, message)
}
