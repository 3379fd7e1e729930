package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/taller-adm-api/internal/dto"
	"github.com/noah-isme/taller-adm-api/internal/middleware"
	"github.com/noah-isme/taller-adm-api/internal/models"
	"github.com/noah-isme/taller-adm-api/internal/service"
	appErrors "github.com/noah-isme/taller-adm-api/pkg/errors"
	"github.com/noah-isme/taller-adm-api/pkg/export"
	"github.com/noah-isme/taller-adm-api/pkg/response"
)

// BillingHandler exposes the pending dues, allocation and payment endpoints.
// All three entry points read the same calculator.
type BillingHandler struct {
	dues     *service.DuesService
	payments *service.PaymentService
	metrics  *service.MetricsService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
}

// NewBillingHandler constructs BillingHandler.
func NewBillingHandler(dues *service.DuesService, payments *service.PaymentService, metrics *service.MetricsService) *BillingHandler {
	return &BillingHandler{
		dues:     dues,
		payments: payments,
		metrics:  metrics,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
	}
}

// StudentDues godoc
// @Summary Pending dues for a student or their family group
// @Tags Billing
// @Produce json
// @Param id path string true "Student ID"
// @Param month query int false "Billing month (1-12); omit for all pending"
// @Param year query int false "Billing year; required with month"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/dues [get]
func (h *BillingHandler) StudentDues(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	dues, err := h.dues.PendingForStudent(c.Request.Context(), c.Param("id"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveDuesCalculation("student", time.Since(start))

	meta := map[string]interface{}{"no_active_workshops": dues.NoActiveWorkshops}
	response.JSON(c, http.StatusOK, dues, nil, meta)
}

// PendingReport godoc
// @Summary Institution-wide pending dues report
// @Tags Billing
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param month query int false "Billing month (1-12)"
// @Param year query int false "Billing year"
// @Param format query string false "Export format: csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /reports/pending-dues [get]
func (h *BillingHandler) PendingReport(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	report, err := h.dues.PendingReport(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveDuesCalculation("report", time.Since(start))

	rows := flattenReport(report)
	switch c.Query("format") {
	case "":
		response.JSON(c, http.StatusOK, rows, nil)
	case "csv":
		payload, err := h.csv.Render(reportDataset(rows))
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export report"))
			return
		}
		response.Blob(c, "text/csv", "pending-dues.csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(reportDataset(rows), "Pending dues")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export report"))
			return
		}
		response.Blob(c, "application/pdf", "pending-dues.pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
	}
}

// Allocate godoc
// @Summary Price allocation preview for one billing period
// @Tags Billing
// @Accept json
// @Produce json
// @Param payload body dto.AllocateRequest true "Allocation payload"
// @Success 200 {object} response.Envelope
// @Router /billing/allocate [post]
func (h *BillingHandler) Allocate(c *gin.Context) {
	var req dto.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.dues.Allocate(c.Request.Context(), service.AllocateRequest{
		StudentID: req.StudentID,
		Month:     req.Month,
		Year:      req.Year,
		Mode:      req.Mode,
		Overrides: service.AllocationOverrides{
			Modes:      req.ModeOverrides,
			Exceptions: req.ExceptionOverrides,
		},
		SelectedKeys: req.SelectedKeys,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RegisterPayment godoc
// @Summary Register a payment with its line items
// @Tags Billing
// @Accept json
// @Produce json
// @Param payload body service.RegisterPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *BillingHandler) RegisterPayment(c *gin.Context) {
	var req service.RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.payments.Register(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrAlreadyPaid.Code {
			h.metrics.RecordRevalidationConflict()
		}
		response.Error(c, err)
		return
	}
	h.metrics.RecordPayment(result.Total)

	if len(result.Warnings) > 0 {
		response.CreatedWithWarnings(c, result, result.Warnings)
		return
	}
	response.Created(c, result)
}

// ListPayments godoc
// @Summary List payment headers
// @Tags Billing
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param familyGroupId query string false "Filter by family group"
// @Param month query int false "Filter by month"
// @Param year query int false "Filter by year"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *BillingHandler) ListPayments(c *gin.Context) {
	var filter models.PaymentFilter
	filter.StudentID = c.Query("studentId")
	filter.FamilyGroupID = c.Query("familyGroupId")
	if month, err := strconv.Atoi(c.DefaultQuery("month", "0")); err == nil {
		filter.Month = month
	}
	if year, err := strconv.Atoi(c.DefaultQuery("year", "0")); err == nil {
		filter.Year = year
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	payments, pagination, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// PaymentDetail godoc
// @Summary Payment with nested line items
// @Tags Billing
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *BillingHandler) PaymentDetail(c *gin.Context) {
	detail, err := h.payments.FindDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

func periodFromQuery(c *gin.Context) (*models.Period, error) {
	monthRaw := c.Query("month")
	yearRaw := c.Query("year")
	if monthRaw == "" && yearRaw == "" {
		return nil, nil
	}
	month, err := strconv.Atoi(monthRaw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid month")
	}
	year, err := strconv.Atoi(yearRaw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid year")
	}
	period := &models.Period{Month: month, Year: year}
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid billing period")
	}
	return period, nil
}

func flattenReport(report []models.PendingDues) []dto.PendingReportRow {
	rows := make([]dto.PendingReportRow, 0)
	for _, entry := range report {
		for _, item := range entry.Items {
			row := dto.PendingReportRow{
				StudentID:     item.StudentID,
				StudentName:   item.StudentName,
				FamilyGroupID: entry.FamilyGroupID,
				WorkshopName:  item.WorkshopName,
				Month:         item.Month,
				Year:          item.Year,
			}
			if item.ReferencePrice != nil {
				price := item.ReferencePrice.FullCash
				row.ReferencePrice = &price
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func reportDataset(rows []dto.PendingReportRow) export.Dataset {
	headers := []string{"Student", "Workshop", "Month", "Year", "Reference Price"}
	out := make([]map[string]string, 0, len(rows))
	total := decimal.Zero
	for _, row := range rows {
		price := ""
		if row.ReferencePrice != nil {
			price = row.ReferencePrice.StringFixed(2)
			total = total.Add(*row.ReferencePrice)
		}
		out = append(out, map[string]string{
			"Student":         row.StudentName,
			"Workshop":        row.WorkshopName,
			"Month":           fmt.Sprintf("%02d", row.Month),
			"Year":            strconv.Itoa(row.Year),
			"Reference Price": price,
		})
	}
	return export.Dataset{
		Headers: headers,
		Rows:    out,
		Footer: map[string]string{
			"Student":         "TOTAL",
			"Reference Price": total.StringFixed(2),
		},
	}
}
