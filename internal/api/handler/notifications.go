package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lumenrehab/casedata/internal/api/respond"
	"github.com/lumenrehab/casedata/internal/cache"
)

const (
	feedDefaultLimit = 50
	feedMaxLimit     = 200
)

// notificationRow is the JSON shape of one notification in the feed.
type notificationRow struct {
	ID            string    `json:"id"`
	RecipientID   string    `json:"recipient_id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Priority      string    `json:"priority"`
	ActionURL     *string   `json:"action_url"`
	AppointmentID *string   `json:"appointment_id"`
	CaseID        *string   `json:"case_id"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

// GetNotifications returns the newest notifications for a recipient.
// @Summary Notification feed
// @Description Returns the newest notifications for a recipient, newest first.
// @Tags notifications
// @Produce json
// @Param recipientID path string true "Recipient user ID"
// @Param limit query int false "Max rows (default 50, cap 200)"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} respond.ErrorResponse
// @Router /notifications/{recipientID} [get]
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	recipientID := chi.URLParam(r, "recipientID")

	limit := feedDefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > feedMaxLimit {
		limit = feedMaxLimit
	}

	key := "feed:" + recipientID + ":" + strconv.Itoa(limit)
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLNotifications, true)
		return
	}

	rows, err := h.pool.Query(r.Context(), "notifications_for_recipient", recipientID, limit)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "QUERY_FAILED",
			"Failed to load notifications")
		return
	}
	defer rows.Close()

	feed := make([]notificationRow, 0, limit)
	for rows.Next() {
		var n notificationRow
		if err := rows.Scan(
			&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Message, &n.Priority,
			&n.ActionURL, &n.AppointmentID, &n.CaseID, &n.Read, &n.CreatedAt,
		); err != nil {
			respond.WriteError(w, http.StatusInternalServerError, "SCAN_FAILED",
				"Failed to read notifications")
			return
		}
		feed = append(feed, n)
	}
	if err := rows.Err(); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "QUERY_FAILED",
			"Failed to load notifications")
		return
	}

	var unread int
	if err := h.pool.QueryRow(r.Context(), "unread_notification_count", recipientID).Scan(&unread); err != nil {
		unread = 0
	}

	data, err := json.Marshal(map[string]interface{}{
		"recipient_id":  recipientID,
		"notifications": feed,
		"unread_count":  unread,
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED",
			"Failed to encode notifications")
		return
	}

	etag := h.cache.Set(key, data, cache.TTLNotifications)
	respond.WriteJSON(w, data, etag, cache.TTLNotifications, false)
}

// TriggerTodayReminders runs the daily reminder pipeline synchronously.
// @Summary Manually run the daily reminder pipeline
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /admin/reminders/today [post]
func (h *Handler) TriggerTodayReminders(w http.ResponseWriter, r *http.Request) {
	created := h.reminders.TriggerTodaysNotifications(r.Context())
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"pipeline": "today",
		"created":  created,
	})
}

// TriggerUpcomingReminders runs the hourly reminder pipeline synchronously.
// @Summary Manually run the hourly reminder pipeline
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /admin/reminders/upcoming [post]
func (h *Handler) TriggerUpcomingReminders(w http.ResponseWriter, r *http.Request) {
	created := h.reminders.TriggerUpcomingReminders(r.Context())
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"pipeline": "upcoming",
		"created":  created,
	})
}
