package roles

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rolegate/entity"
	"rolegate/lib/api/response"
	"rolegate/lib/sl"
)

type Core interface {
	GuildRoles(ctx context.Context) ([]*entity.Role, error)
}

// List returns the guild's current role id/name pairs, used by the
// admin UI to populate its role selector.
func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(
			sl.Module("http.handlers.roles"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		guildRoles, err := handler.GuildRoles(r.Context())
		if err != nil {
			log.Error("guild roles", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Error fetching roles"))
			return
		}

		render.JSON(w, r, response.Ok(guildRoles))
	}
}
