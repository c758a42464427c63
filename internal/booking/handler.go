package booking

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ietfeiheh2016/smilecare-dental-website/internal/schedule"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/security"
	"github.com/ietfeiheh2016/smilecare-dental-website/pkg/logging"
)

// Handler exposes the appointments HTTP surface consumed by the
// marketing site's widget and form.
type Handler struct {
	svc         *Service
	clinicPhone string
	logger      *logging.Logger
}

// NewHandler creates the appointments handler. clinicPhone appears in
// the "please call us" copy on write failures.
func NewHandler(svc *Service, clinicPhone string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, clinicPhone: clinicPhone, logger: logger}
}

type appointmentRequest struct {
	Action string `json:"action"`
	security.PatientData
}

type slotsResponse struct {
	Success  bool                `json:"success"`
	Slots    []schedule.TimeSlot `json:"slots"`
	Date     string              `json:"date"`
	Degraded bool                `json:"degraded"`
}

// HandleAppointments serves POST /appointments with the create and
// getSlots actions.
func (h *Handler) HandleAppointments(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid request body",
		})
		return
	}

	switch req.Action {
	case "create":
		h.create(w, r, req.PatientData)
	case "getSlots":
		h.slots(w, r, req.Date)
	default:
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid action",
		})
	}
}

// HandleGetSlots serves GET /appointments?date=ISO8601.
func (h *Handler) HandleGetSlots(w http.ResponseWriter, r *http.Request) {
	h.slots(w, r, r.URL.Query().Get("date"))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, data security.PatientData) {
	cleaned := security.SanitizePatientData(data)

	validation := security.ValidatePatientData(cleaned, h.svc.loc)
	if !validation.IsValid {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Invalid appointment data",
			"details": validation.Errors,
		})
		return
	}

	result, err := h.svc.CreateAppointment(r.Context(), cleaned)
	if err != nil {
		h.logger.Error("failed to create appointment", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to process appointment request",
			"message": "Please call our office at " + h.clinicPhone + " for immediate assistance.",
		})
		return
	}

	masked := security.MaskSensitiveData(cleaned)
	h.logger.Info("appointment created",
		"event_id", result.EventID,
		"email", masked.Email,
		"phone", masked.Phone,
		"service", masked.Service,
	)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"appointmentId": result.EventID,
		"message":       "Appointment booked successfully!",
		"startTime":     result.StartTime.Format(time.RFC3339),
		"endTime":       result.EndTime.Format(time.RFC3339),
	})
}

func (h *Handler) slots(w http.ResponseWriter, r *http.Request, rawDate string) {
	date := time.Now().In(h.svc.loc)
	if rawDate != "" {
		parsed, err := h.parseRequestDate(rawDate)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "invalid date",
			})
			return
		}
		date = parsed
	}

	slots, degraded := h.svc.AvailableSlots(r.Context(), date)
	if slots == nil {
		slots = []schedule.TimeSlot{}
	}

	h.writeJSON(w, http.StatusOK, slotsResponse{
		Success:  true,
		Slots:    slots,
		Date:     date.In(h.svc.loc).Format(time.RFC3339),
		Degraded: degraded,
	})
}

// parseRequestDate accepts RFC3339 timestamps or plain dates; plain
// dates are interpreted in the clinic's timezone.
func (h *Handler) parseRequestDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", raw, h.svc.loc)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
