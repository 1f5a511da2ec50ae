package simulation

import (
	dto "cashflip/internal/api/dto/simulation"
	"cashflip/internal/api/httperr"
	"cashflip/internal/converter"
	"cashflip/internal/service"
	"cashflip/pkg/req"
	"cashflip/pkg/resp"
	"net/http"

	"go.uber.org/zap"
)

type HandlerDeps struct {
	Serv service.SimulationService
	Log  *zap.Logger
}

type Handler struct {
	serv service.SimulationService
	log  *zap.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{serv: deps.Serv, log: log}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.serv.Current(r.Context())
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToOverrideResponse(*o))
}

func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	payload, err := req.Decode[dto.ReplaceRequest](r.Body)
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	o, err := h.serv.Replace(r.Context(), converter.ToSimulationOverride(payload), payload.ExpectedVersion)
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToOverrideResponse(*o))
}
