package redemptions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rolegate/entity"
	"rolegate/lib/api/response"
	"rolegate/lib/sl"
)

const defaultLimit = 50

type Core interface {
	RecentRedemptions(ctx context.Context, limit int64) ([]*entity.RedemptionRecord, error)
}

// List exposes the redemption journal so an operator can reconcile
// redemptions whose guild side effects were applied without the row
// ever being bound.
func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(
			sl.Module("http.handlers.redemptions"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		limit := int64(defaultLimit)
		if v := r.URL.Query().Get("limit"); v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil || parsed < 1 {
				render.Status(r, 400)
				render.JSON(w, r, response.Error("Invalid limit"))
				return
			}
			limit = parsed
		}

		records, err := handler.RecentRedemptions(r.Context(), limit)
		if err != nil {
			if errors.Is(err, entity.ErrJournalDisabled) {
				log.Warn("journal disabled")
				render.Status(r, 503)
				render.JSON(w, r, response.Error("Redemption journal is not enabled"))
				return
			}
			log.Error("recent redemptions", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to fetch redemptions"))
			return
		}

		render.JSON(w, r, response.Ok(records))
	}
}
