package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

const maxJSONBody = 1 << 20

// respondError writes err with its mapped status. Server-side failures are
// logged with the request id and answered with a generic message.
func respondError(log logging.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed",
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
	}
	common.RespondWithError(w, status, common.PublicMessage(err))
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return common.BadRequest("request body is required")
		}
		return common.BadRequest("invalid request payload")
	}
	return nil
}
