package server

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	clientdomain "github.com/autoremind/autoremind/internal/client/domain"
	"github.com/autoremind/autoremind/internal/reminder"
	settingsdomain "github.com/autoremind/autoremind/internal/settings/domain"
	"github.com/autoremind/autoremind/pkg/tenantctx"
)

const dateLayout = "2006-01-02"

type clientRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Resource     string `json:"resource"`
	ReminderDate string `json:"reminder_date"`
}

type clientUpdateRequest struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Resource     *string `json:"resource"`
	ReminderDate *string `json:"reminder_date"`
}

type clientResponse struct {
	ID           snowflake.ID `json:"id"`
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	Resource     string       `json:"resource"`
	ReminderDate string       `json:"reminder_date"`
	ReminderSent bool         `json:"reminder_sent"`
}

func toClientResponse(record clientdomain.ClientRecord) clientResponse {
	return clientResponse{
		ID:           record.ID,
		Name:         record.Name,
		Phone:        record.Phone,
		Resource:     record.Resource,
		ReminderDate: record.ReminderDate.Format(dateLayout),
		ReminderSent: record.ReminderSent,
	}
}

func (s *Server) ListClients(c *gin.Context) {
	records, err := s.clientSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]clientResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, toClientResponse(record))
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetClient(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.clientSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toClientResponse(*record)})
}

func (s *Server) CreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(req.ReminderDate))
	if err != nil {
		AbortWithError(c, newValidationError("reminder_date", "invalid_reminder_date", "expected YYYY-MM-DD"))
		return
	}

	record, err := s.clientSvc.Create(c.Request.Context(), clientdomain.CreateRequest{
		Name:         req.Name,
		Phone:        req.Phone,
		Resource:     req.Resource,
		ReminderDate: date,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toClientResponse(*record)})
}

func (s *Server) UpdateClient(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var req clientUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := clientdomain.UpdateRequest{
		Name:     req.Name,
		Phone:    req.Phone,
		Resource: req.Resource,
	}
	if req.ReminderDate != nil {
		date, err := time.Parse(dateLayout, strings.TrimSpace(*req.ReminderDate))
		if err != nil {
			AbortWithError(c, newValidationError("reminder_date", "invalid_reminder_date", "expected YYYY-MM-DD"))
			return
		}
		update.ReminderDate = &date
	}

	record, err := s.clientSvc.Update(c.Request.Context(), id, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toClientResponse(*record)})
}

func (s *Server) DeleteClient(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.clientSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) BulkDeleteClients(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ids := make([]snowflake.ID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := parseID(raw)
		if err != nil {
			AbortWithError(c, newValidationError("ids", "invalid_id", "invalid id: "+raw))
			return
		}
		ids = append(ids, id)
	}

	deleted, err := s.clientSvc.DeleteMany(c.Request.Context(), ids)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": deleted}})
}

// SendClientReminder sends the reminder for one record immediately,
// regardless of the reminder date, and marks it sent.
func (s *Server) SendClientReminder(c *gin.Context) {
	userID, ok := tenantctx.TenantID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.clientSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tenantSettings, err := s.settingsSvc.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	message := reminder.RenderTemplate(s.messageTemplate(tenantSettings), reminder.TemplateData{
		ClientName:      record.Name,
		Resource:        record.Resource,
		Date:            record.ReminderDate.Format(dateLayout),
		BusinessName:    tenantSettings.BusinessName,
		BusinessContact: tenantSettings.BusinessContact,
	})

	result, sendErr := s.smsSvc.Send(c.Request.Context(), userID, record.Phone, message)
	if sendErr != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": sendErr})
		return
	}

	if _, err := s.clientSvc.MarkSent(c.Request.Context(), id); err != nil {
		s.log.Warn("failed to mark reminder sent after manual send", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message_id": result.MessageID}})
}

// ImportClients accepts a CSV body with columns name, phone, resource and
// reminder date (YYYY-MM-DD). A header row is detected and skipped.
func (s *Server) ImportClients(c *gin.Context) {
	reader := csv.NewReader(c.Request.Body)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []clientdomain.ImportRow
	first := true
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			AbortWithError(c, newValidationError("file", "invalid_csv", "malformed CSV"))
			return
		}
		if first {
			first = false
			if isHeaderRow(fields) {
				continue
			}
		}
		rows = append(rows, parseImportRow(fields))
	}

	result, err := s.clientSvc.Import(c.Request.Context(), rows)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ExportClients(c *gin.Context) {
	records, err := s.clientSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="clients.csv"`)

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write([]string{"name", "phone", "resource", "reminder_date", "reminder_sent"})
	for _, record := range records {
		_ = writer.Write([]string{
			record.Name,
			record.Phone,
			record.Resource,
			record.ReminderDate.Format(dateLayout),
			fmt.Sprintf("%t", record.ReminderSent),
		})
	}
	writer.Flush()
}

func isHeaderRow(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	head := strings.ToLower(strings.TrimSpace(fields[0]))
	return head == "name" || head == "client" || head == "client_name"
}

func parseImportRow(fields []string) clientdomain.ImportRow {
	get := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}

	row := clientdomain.ImportRow{
		Name:     get(0),
		Phone:    get(1),
		Resource: get(2),
	}
	if date, err := time.Parse(dateLayout, get(3)); err == nil {
		row.ReminderDate = date
	}
	return row
}

func (s *Server) messageTemplate(settings *settingsdomain.TenantSettings) string {
	if settings != nil && settings.MessageTemplate != "" {
		return settings.MessageTemplate
	}
	return s.reminderCfg.Get().DefaultMessageTemplate
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
