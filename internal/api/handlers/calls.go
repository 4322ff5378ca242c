package handlers

import (
	"net/http"

	"github.com/eshaffer321/zenmoney-reconcile/internal/api/dto"
)

// CallsHandler serves the remote call log.
type CallsHandler struct {
	*Base
}

// NewCallsHandler creates a new calls handler.
func NewCallsHandler(base *Base) *CallsHandler {
	return &CallsHandler{Base: base}
}

// List handles GET /api/users/{user}/calls?limit=
func (h *CallsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.userLedger(w, r)
	if !ok {
		return
	}

	calls, err := h.repo.ListCalls(user, ParseIntParam(r, "limit", 50))
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.CallListResponse{
		Calls: make([]dto.CallResponse, 0, len(calls)),
		Count: len(calls),
	}
	for _, c := range calls {
		response.Calls = append(response.Calls, dto.NewCallResponse(c))
	}
	h.WriteJSON(w, http.StatusOK, response)
}
