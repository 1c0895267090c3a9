// Package rpcserver is the thin adapter binding the two unary operations
// from spec §4.H/§6 to the coordinator (G) — a JSON-over-HTTP stand-in for
// the generated-code gRPC binding spec.md explicitly scopes out. It
// validates just enough to call the coordinator and otherwise delegates
// entirely, in the style of the teacher's internal/handlers package
// (a thin Handlers struct, one fiber.Map error shape, no business logic).
package rpcserver

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chosunone/robots-server/internal/coordinator"
	"github.com/chosunone/robots-server/internal/policy"
)

// Server holds the coordinator the RPC surface delegates to.
type Server struct {
	coord  *coordinator.Coordinator
	logger *zap.Logger
}

// New builds a Server.
func New(coord *coordinator.Coordinator, logger *zap.Logger) *Server {
	return &Server{coord: coord, logger: logger}
}

// Register mounts the two RPC routes onto app.
func (s *Server) Register(app *fiber.App) {
	app.Post("/v1/robots", s.getRobots)
	app.Post("/v1/robots/allowed", s.isAllowed)
}

// ErrorHandler is installed as the fiber.Config.ErrorHandler, matching
// the teacher's handlers.ErrorHandler shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

type getRobotsRequest struct {
	URL string `json:"url"`
}

type ruleJSON struct {
	RuleType    string `json:"rule_type"`
	PathPattern string `json:"path_pattern"`
}

type groupJSON struct {
	UserAgents        []string   `json:"user_agents"`
	Rules             []ruleJSON `json:"rules"`
	CrawlDelaySeconds int        `json:"crawl_delay_seconds,omitempty"`
}

type snapshotJSON struct {
	TargetURL          string      `json:"target_url"`
	RobotsTxtURL       string      `json:"robots_txt_url"`
	AccessResult       string      `json:"access_result"`
	HTTPStatusCode     int         `json:"http_status_code"`
	Groups             []groupJSON `json:"groups"`
	Sitemaps           []string    `json:"sitemaps"`
	ContentLengthBytes int64       `json:"content_length_bytes"`
	Truncated          bool        `json:"truncated"`
}

func toSnapshotJSON(s *policy.Snapshot) snapshotJSON {
	groups := make([]groupJSON, 0, len(s.Groups))
	for _, g := range s.Groups {
		rules := make([]ruleJSON, 0, len(g.Rules))
		for _, r := range g.Rules {
			rules = append(rules, ruleJSON{RuleType: r.RuleType.String(), PathPattern: r.PathPattern})
		}
		groups = append(groups, groupJSON{
			UserAgents:        g.UserAgents,
			Rules:             rules,
			CrawlDelaySeconds: g.CrawlDelaySeconds,
		})
	}
	sitemaps := s.Sitemaps
	if sitemaps == nil {
		sitemaps = []string{}
	}
	return snapshotJSON{
		TargetURL:          s.TargetURL,
		RobotsTxtURL:       s.RobotsTxtURL,
		AccessResult:       s.AccessResult.String(),
		HTTPStatusCode:     s.HTTPStatusCode,
		Groups:             groups,
		Sitemaps:           sitemaps,
		ContentLengthBytes: s.ContentLengthBytes,
		Truncated:          s.Truncated,
	}
}

func (s *Server) getRobots(c *fiber.Ctx) error {
	reqID := uuid.NewString()
	c.Set("X-Request-Id", reqID)

	var req getRobotsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	snapshot, statusErr := s.coord.GetRobots(c.Context(), req.URL, reqID)
	if statusErr != nil {
		return writeStatusError(c, statusErr)
	}
	return c.JSON(toSnapshotJSON(snapshot))
}

type isAllowedRequest struct {
	TargetURL string `json:"target_url"`
	UserAgent string `json:"user_agent"`
}

func (s *Server) isAllowed(c *fiber.Ctx) error {
	reqID := uuid.NewString()
	c.Set("X-Request-Id", reqID)

	var req isAllowedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	allowed, statusErr := s.coord.IsAllowed(c.Context(), req.TargetURL, req.UserAgent, reqID)
	if statusErr != nil {
		return writeStatusError(c, statusErr)
	}
	return c.JSON(fiber.Map{"allowed": allowed})
}

func writeStatusError(c *fiber.Ctx, statusErr *coordinator.StatusError) error {
	code := fiber.StatusInternalServerError
	if statusErr.Code == coordinator.StatusInvalidArgument {
		code = fiber.StatusBadRequest
	}
	return c.Status(code).JSON(fiber.Map{"error": statusErr.Message})
}
