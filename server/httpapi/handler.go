package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kasuganosora/knapsackga/pkg/api"
	"github.com/kasuganosora/knapsackga/pkg/report"
	"github.com/kasuganosora/knapsackga/pkg/solver"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers serves the solver over HTTP
type Handlers struct {
	svc    *solver.Service
	logger api.Logger
}

// NewHandlers creates the route handlers
func NewHandlers(svc *solver.Service, logger api.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger}
}

// RegisterRoutes mounts the handlers under group
func RegisterRoutes(group *gin.RouterGroup, h *Handlers) {
	group.GET("/health", h.HandleHealth)
	group.GET("/items", h.HandleItems)
	group.POST("/solve", h.HandleSolve)
	group.POST("/evaluate", h.HandleEvaluate)
}

// HandleHealth handles GET /api/v1/health. stats summarizes the runs served
// so far.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Stats:   h.svc.Metrics().GetSnapshot(),
	})
}

// HandleItems handles GET /api/v1/items
func (h *Handlers) HandleItems(c *gin.Context) {
	c.JSON(http.StatusOK, ItemsResponse{
		Capacity: h.svc.Capacity(),
		Items:    h.svc.Items(),
	})
}

// HandleSolve handles POST /api/v1/solve.
//
// The query parameter format selects the response body: json (default), text
// (a summary localized by the lang parameter or Accept-Language) or xlsx.
// With runs > 1 the body is a batch and only json is supported.
func (h *Handlers) HandleSolve(c *gin.Context) {
	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBindError(c, err)
		return
	}

	format := c.DefaultQuery("format", "json")
	if runs := req.RunCount(); runs > 1 {
		if format != "json" {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "batch results are only available as json",
				Code:  string(api.ErrCodeInvalidParam),
			})
			return
		}
		batch, err := h.svc.SolveBatch(c.Request.Context(), req.Options(), runs)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, batch)
		return
	}

	res, err := h.svc.Solve(c.Request.Context(), req.Options())
	if err != nil {
		h.writeError(c, err)
		return
	}

	switch format {
	case "text":
		lang := c.DefaultQuery("lang", c.GetHeader("Accept-Language"))
		c.String(http.StatusOK, report.Summary(res, lang, c.Query("generations") == "true"))
	case "xlsx":
		c.Header("Content-Disposition", `attachment; filename="knapsack-`+res.RunID+`.xlsx"`)
		c.Header("Content-Type", xlsxContentType)
		c.Status(http.StatusOK)
		if err := report.WriteWorkbook(c.Writer, res); err != nil {
			h.logger.Error("[HTTP API] write workbook for run %s: %v", res.RunID, err)
		}
	default:
		c.JSON(http.StatusOK, res)
	}
}

// HandleEvaluate handles POST /api/v1/evaluate
func (h *Handlers) HandleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	ev, err := h.svc.Evaluate(req.Chromosome)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: "invalid request body: " + err.Error(),
		Code:  string(api.ErrCodeInvalidParam),
	})
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	apiErr := api.FromError(err, "request failed")
	status := api.HTTPStatus(apiErr.Code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("[HTTP API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, ErrorResponse{
		Error: apiErr.Error(),
		Code:  string(apiErr.Code),
	})
}
