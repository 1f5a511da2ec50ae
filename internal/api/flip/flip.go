package flip

import (
	dto "cashflip/internal/api/dto/flip"
	"cashflip/internal/api/httperr"
	"cashflip/internal/converter"
	"cashflip/internal/service"
	"cashflip/pkg/req"
	"cashflip/pkg/resp"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type HandlerDeps struct {
	Serv service.FlipService
	Log  *zap.Logger
}

type Handler struct {
	serv service.FlipService
	log  *zap.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{serv: deps.Serv, log: log}
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	payload, err := req.Decode[dto.StartRequest](r.Body)
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result, err := h.serv.Start(r.Context(), converter.ToStartSession(payload))
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusCreated, converter.ToStartResponse(*result))
}

func (h *Handler) Flip(w http.ResponseWriter, r *http.Request) {
	result, err := h.serv.Flip(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToFlipResponse(*result))
}

func (h *Handler) Cashout(w http.ResponseWriter, r *http.Request) {
	result, err := h.serv.Cashout(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToCashoutResponse(*result))
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	payload, err := req.Decode[dto.PauseRequest](r.Body)
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result, err := h.serv.Pause(r.Context(), chi.URLParam(r, "sessionID"), payload.Confirm)
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToPauseResponse(*result))
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.serv.Resume(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Verify отдаёт раскрытый секрет. При расхождении хэшей тело всё равно возвращается,
// чтобы игрок видел, какой флип не сошёлся
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	result, err := h.serv.Verify(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil && (result == nil || !errors.Is(err, service.ErrIntegrity)) {
		httperr.Write(w, h.log, err)
		return
	}

	response := converter.ToVerifyResponse(*result)
	status := http.StatusOK
	if err != nil {
		h.log.Error("verify mismatch", zap.String("session_id", chi.URLParam(r, "sessionID")), zap.Error(err))
		status, response.Code = httperr.Status(err)
	}

	resp.WriteJSONResponse(w, status, response)
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	session, err := h.serv.Current(r.Context())
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToSessionResponse(*session))
}
