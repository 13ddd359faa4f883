// internal/handler/printer_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"order-printer/internal/service"
	"order-printer/internal/utils"
)

// PrinterHandler handles printer listing and session selection requests
type PrinterHandler struct {
	service *service.PrintService
	logger  *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printService *service.PrintService, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		service: printService,
		logger:  utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer and session routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	printers := router.Group("/printers")
	{
		printers.GET("", h.ListPrinters)
		printers.GET("/:target/status", h.GetPrinterStatus)
	}

	session := router.Group("/session")
	{
		session.GET("", h.GetSession)
		session.POST("/printer", h.SelectPrinter)
		session.DELETE("/printer", h.ClearPrinter)
	}
}

// SelectPrinterRequest selects a printer by target
type SelectPrinterRequest struct {
	Target string `json:"target" binding:"required"`
}

// ListPrinters lists the configured printers
// @Summary List printers
// @Description Get the configured printers with their busy and selected flags
// @Tags Printers
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]model.PrinterInfo} "Printers retrieved"
// @Router /api/v1/printers [get]
func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Printers retrieved", h.service.Devices())
}

// GetPrinterStatus returns the cached status of one printer
// @Summary Printer status
// @Description Get the last known status of a printer and whether a job holds it
// @Tags Printers
// @Produce json
// @Param target path string true "Printer target"
// @Success 200 {object} utils.APIResponse{data=service.PrinterStatus} "Status retrieved"
// @Failure 404 {object} utils.APIResponse "Unknown printer"
// @Router /api/v1/printers/{target}/status [get]
func (h *PrinterHandler) GetPrinterStatus(c *gin.Context) {
	status, err := h.service.Status(c.Param("target"))
	if err != nil {
		writeError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Status retrieved", status)
}

// GetSession returns the printer session
// @Summary Printer session
// @Description Get the selected printer, printing flag, last error and status
// @Tags Session
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.SessionState} "Session retrieved"
// @Router /api/v1/session [get]
func (h *PrinterHandler) GetSession(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Session retrieved", h.service.Session())
}

// SelectPrinter selects the printer used for printing
// @Summary Select printer
// @Description Select the printer subsequent print requests go to
// @Tags Session
// @Accept json
// @Produce json
// @Param request body SelectPrinterRequest true "Printer target"
// @Success 200 {object} utils.APIResponse{data=service.SessionState} "Printer selected"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Unknown printer"
// @Router /api/v1/session/printer [post]
func (h *PrinterHandler) SelectPrinter(c *gin.Context) {
	var req SelectPrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, err := h.service.SelectPrinter(req.Target); err != nil {
		writeError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer selected", h.service.Session())
}

// ClearPrinter clears the selected printer
// @Summary Clear printer
// @Description Clear the selected printer
// @Tags Session
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.SessionState} "Printer cleared"
// @Router /api/v1/session/printer [delete]
func (h *PrinterHandler) ClearPrinter(c *gin.Context) {
	h.service.ClearPrinter()
	utils.SuccessResponse(c, http.StatusOK, "Printer cleared", h.service.Session())
}
