// internal/handler/print_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"order-printer/internal/model"
	"order-printer/internal/service"
	"order-printer/internal/utils"
)

const maxOrderBytes = 1 << 20

var errUnsupportedMediaType = errors.New("unsupported media type")

// PrintHandler handles order printing and preview requests
type PrintHandler struct {
	service *service.PrintService
	logger  *utils.ServiceLogger
}

// NewPrintHandler creates a new print handler
func NewPrintHandler(printService *service.PrintService, logger *zap.Logger) *PrintHandler {
	return &PrintHandler{
		service: printService,
		logger:  utils.NewServiceLogger(logger, "print-handler"),
	}
}

// RegisterRoutes registers print routes
func (h *PrintHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/print", h.PrintOrder)
	router.POST("/preview", h.Preview)
}

// PrintOrder prints an order on the selected printer
// @Summary Print an order
// @Description Compile the order into a receipt and print it on the selected printer. Accepts JSON or YAML.
// @Tags Print
// @Accept json,x-yaml
// @Produce json
// @Param order body model.OrderDocument true "Order document"
// @Success 200 {object} utils.APIResponse{data=service.PrintResult} "Order printed"
// @Failure 400 {object} utils.APIResponse "Invalid order"
// @Failure 409 {object} utils.APIResponse "No printer selected"
// @Failure 502 {object} utils.APIResponse "Printing failed"
// @Failure 504 {object} utils.APIResponse "Printer did not come online"
// @Router /api/v1/print [post]
func (h *PrintHandler) PrintOrder(c *gin.Context) {
	order, err := decodeOrder(c)
	if err != nil {
		h.rejectBody(c, err)
		return
	}

	result, err := h.service.PrintOrder(c.Request.Context(), order)
	if err != nil {
		h.logger.Warn("Print failed",
			zap.String("order_id", order.DisplayID()),
			zap.Error(err),
		)
		writeError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order printed", result)
}

// Preview renders an order as plain text
// @Summary Preview an order
// @Description Render the receipt of an order as text without printing. Accepts JSON or YAML.
// @Tags Print
// @Accept json,x-yaml
// @Produce json,plain
// @Param order body model.OrderDocument true "Order document"
// @Param width query int false "Line width in characters"
// @Param format query string false "Response format" Enums(json, text) default(json)
// @Success 200 {object} utils.APIResponse{data=object{preview=string,width=int}} "Preview rendered"
// @Failure 400 {object} utils.APIResponse "Invalid order or width"
// @Router /api/v1/preview [post]
func (h *PrintHandler) Preview(c *gin.Context) {
	width := 0
	if raw := c.Query("width"); raw != "" {
		w, err := strconv.Atoi(raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "width must be an integer", err)
			return
		}
		width = w
	}

	order, err := decodeOrder(c)
	if err != nil {
		h.rejectBody(c, err)
		return
	}

	text, err := h.service.Preview(c.Request.Context(), order, width)
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, text)
		return
	}
	if width == 0 {
		width = h.service.PrintWidth()
	}
	utils.SuccessResponse(c, http.StatusOK, "Preview rendered", gin.H{
		"preview": text,
		"width":   width,
	})
}

func (h *PrintHandler) rejectBody(c *gin.Context, err error) {
	if errors.Is(err, errUnsupportedMediaType) {
		utils.ErrorResponse(c, http.StatusUnsupportedMediaType, "Content-Type must be JSON or YAML", err)
		return
	}
	utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
}

// decodeOrder reads the order body as JSON or YAML depending on Content-Type.
// A missing Content-Type is read as JSON.
func decodeOrder(c *gin.Context) (*model.OrderDocument, error) {
	var unmarshal func([]byte, interface{}) error
	switch c.ContentType() {
	case "", gin.MIMEJSON:
		unmarshal = json.Unmarshal
	case "application/x-yaml", "application/yaml", "text/yaml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedMediaType, c.ContentType())
	}

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxOrderBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("request body is empty")
	}

	var order model.OrderDocument
	if err := unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return &order, nil
}
