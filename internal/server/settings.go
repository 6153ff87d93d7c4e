package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	settingsdomain "github.com/autoremind/autoremind/internal/settings/domain"
	"github.com/autoremind/autoremind/pkg/tenantctx"
)

type settingsResponse struct {
	SMSAccountSID    string `json:"sms_account_sid"`
	SMSAuthTokenSet  bool   `json:"sms_auth_token_set"`
	SMSFromNumber    string `json:"sms_from_number"`
	BusinessName     string `json:"business_name"`
	BusinessContact  string `json:"business_contact"`
	ReminderLeadDays int    `json:"reminder_lead_days"`
	MessageTemplate  string `json:"message_template"`
	ManagedSMS       bool   `json:"managed_sms"`
}

type updateSettingsRequest struct {
	SMSAccountSID    *string `json:"sms_account_sid"`
	SMSAuthToken     *string `json:"sms_auth_token"`
	SMSFromNumber    *string `json:"sms_from_number"`
	BusinessName     *string `json:"business_name"`
	BusinessContact  *string `json:"business_contact"`
	ReminderLeadDays *int    `json:"reminder_lead_days"`
	MessageTemplate  *string `json:"message_template"`
}

// toSettingsResponse never echoes the stored auth token, only whether one
// exists.
func toSettingsResponse(settings *settingsdomain.TenantSettings) settingsResponse {
	return settingsResponse{
		SMSAccountSID:    settings.SMSAccountSID,
		SMSAuthTokenSet:  settings.SMSAuthToken != "",
		SMSFromNumber:    settings.SMSFromNumber,
		BusinessName:     settings.BusinessName,
		BusinessContact:  settings.BusinessContact,
		ReminderLeadDays: settings.ReminderLeadDays,
		MessageTemplate:  settings.MessageTemplate,
		ManagedSMS:       settings.ManagedSMS,
	}
}

func (s *Server) GetSettings(c *gin.Context) {
	userID, ok := tenantctx.TenantID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	settings, err := s.settingsSvc.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toSettingsResponse(settings)})
}

func (s *Server) UpdateSettings(c *gin.Context) {
	userID, ok := tenantctx.TenantID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	settings, err := s.settingsSvc.Update(c.Request.Context(), userID, settingsdomain.UpdateRequest{
		SMSAccountSID:    req.SMSAccountSID,
		SMSAuthToken:     req.SMSAuthToken,
		SMSFromNumber:    req.SMSFromNumber,
		BusinessName:     req.BusinessName,
		BusinessContact:  req.BusinessContact,
		ReminderLeadDays: req.ReminderLeadDays,
		MessageTemplate:  req.MessageTemplate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toSettingsResponse(settings)})
}

type testSMSRequest struct {
	Phone string `json:"phone"`
}

// SendTestSMS lets a tenant verify their SMS configuration end to end.
func (s *Server) SendTestSMS(c *gin.Context) {
	userID, ok := tenantctx.TenantID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req testSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	to := strings.TrimSpace(req.Phone)
	if to == "" {
		AbortWithError(c, newValidationError("phone", "invalid_phone", "phone is required"))
		return
	}

	result, sendErr := s.smsSvc.Send(c.Request.Context(), userID, to,
		"This is a test message from your reminder service.")
	if sendErr != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": sendErr})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message_id": result.MessageID}})
}
