package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/stena13/Final-project/database"
	"github.com/stena13/Final-project/repository"
	"github.com/stena13/Final-project/validation"
)

// SubmitResponse is the POST /submitData envelope. Status carries the
// outcome code in the body regardless of transport-level status.
type SubmitResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	ID      *int64 `json:"id"`
}

// UpdateResponse is the PATCH /submitData/{id} envelope: state 1 on success,
// state 0 with an explanation otherwise, always over HTTP 200.
type UpdateResponse struct {
	State   int    `json:"state"`
	Message string `json:"message"`
}

type PerevalHandler struct {
	Repo repository.PerevalRepositoryInterface
}

func (ph *PerevalHandler) SubmitData(w http.ResponseWriter, r *http.Request) {
	var sub validation.PerevalSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}

	// required fields checked before schema validation, reported in-envelope
	var missing []string
	if strings.TrimSpace(sub.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(sub.AddTime) == "" {
		missing = append(missing, "add_time")
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusOK, SubmitResponse{
			Status:  http.StatusBadRequest,
			Message: "Недостаточно обязательных полей: " + strings.Join(missing, ", "),
		})
		return
	}

	if fieldErrors := sub.Validate(); len(fieldErrors) > 0 {
		log.Warn().Str("email", sub.User.Email).Interface("errors", fieldErrors).
			Msg("pereval submission failed validation")
		WriteValidationErrors(w, fieldErrors)
		return
	}

	perevalID, err := ph.Repo.Create(r.Context(), &sub)
	if err != nil {
		log.Error().Err(err).Str("email", sub.User.Email).Str("title", sub.Title).
			Msg("failed to create pereval")
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{
			Status:  http.StatusInternalServerError,
			Message: "Ошибка при сохранении в БД: " + database.DescribeError(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, SubmitResponse{
		Status:  http.StatusOK,
		Message: "Отправлено успешно",
		ID:      &perevalID,
	})
}

func (ph *PerevalHandler) GetPereval(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	perevalID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "INVALID_ID", "pereval id must be an integer")
		return
	}

	pereval, err := ph.Repo.GetByID(r.Context(), perevalID)
	if err != nil {
		if errors.Is(err, repository.ErrPerevalNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Запись не найдена"})
			return
		}
		log.Error().Err(err).Int64("pereval_id", perevalID).Msg("failed to get pereval")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve pereval"})
		return
	}

	writeJSON(w, http.StatusOK, pereval)
}

func (ph *PerevalHandler) UpdatePereval(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	perevalID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "INVALID_ID", "pereval id must be an integer")
		return
	}

	var upd validation.PerevalUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}

	if fieldErrors := upd.Validate(); len(fieldErrors) > 0 {
		log.Warn().Int64("pereval_id", perevalID).Interface("errors", fieldErrors).
			Msg("pereval update failed validation")
		WriteValidationErrors(w, fieldErrors)
		return
	}

	err = ph.Repo.Update(r.Context(), perevalID, &upd)
	if err != nil {
		var notEditable *repository.NotEditableError
		switch {
		case errors.Is(err, repository.ErrPerevalNotFound):
			writeJSON(w, http.StatusOK, UpdateResponse{State: 0, Message: "Запись не найдена"})
		case errors.As(err, &notEditable):
			writeJSON(w, http.StatusOK, UpdateResponse{
				State:   0,
				Message: fmt.Sprintf("Запись со статусом '%s' не может быть отредактирована", notEditable.Status),
			})
		default:
			log.Error().Err(err).Int64("pereval_id", perevalID).Msg("failed to update pereval")
			writeJSON(w, http.StatusOK, UpdateResponse{
				State:   0,
				Message: "Ошибка при обновлении: " + database.DescribeError(err),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, UpdateResponse{State: 1, Message: "Запись успешно обновлена"})
}

func (ph *PerevalHandler) ListByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("user__email")
	if email == "" {
		WriteAPIError(w, http.StatusUnprocessableEntity, "MISSING_PARAMETER", "user__email query parameter is required")
		return
	}
	if !validation.ValidateEmail(email) {
		WriteAPIError(w, http.StatusUnprocessableEntity, "INVALID_EMAIL", "user__email must be a valid email address")
		return
	}

	perevals, err := ph.Repo.ListByEmail(r.Context(), email)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to list perevals by email")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve perevals"})
		return
	}
	if len(perevals) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Записи не найдены"})
		return
	}

	writeJSON(w, http.StatusOK, perevals)
}
