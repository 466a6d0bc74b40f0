package oracles

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/services/oracle"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/handlers"
	"gitlab.com/magneto-ui.net/internal/handlers/response"
)

type RunRequest struct {
	ArgA   string `json:"argA"`
	ArgB   string `json:"argB"`
	TestID string `json:"testId" validate:"omitempty,uuid"`
}

type OracleHandler struct {
	oracleService oracle.IOracleService
	logger        primary.Logger
}

func NewOracleHandler(oracleService oracle.IOracleService, logger primary.Logger) *OracleHandler {
	return &OracleHandler{oracleService: oracleService, logger: logger}
}

func (h *OracleHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/oracles", h.List).Methods(http.MethodGet)
	router.HandleFunc("/api/oracles/{oracle}", h.Run).Methods(http.MethodPost)
}

func (h *OracleHandler) List(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"oracles": h.oracleService.Definitions()})
}

// Run blocks until the oracle script exits or its deadline fires
func (h *OracleHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	// validated above; an empty id stays uuid.Nil and is rejected by the service
	testID, _ := uuid.Parse(req.TestID)

	name := mux.Vars(r)["oracle"]
	output, err := h.oracleService.Run(r.Context(), handlers.UserID(r), name, domain.RunRequest{
		ArgA:   req.ArgA,
		ArgB:   req.ArgB,
		TestID: testID,
	})
	if err != nil {
		h.logger.Warn("Oracle run failed", "oracle", name, "testId", testID, "error", err)
		handlers.ResponseFromError(w, r, h.logger, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]interface{}{"output": output})
}
