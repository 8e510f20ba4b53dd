package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rolegate/entity"
	"rolegate/lib/api/cont"
	"rolegate/lib/api/response"
	"rolegate/lib/sl"
)

type Core interface {
	MemberList(ctx context.Context) ([]*entity.Member, error)
	MemberCreate(ctx context.Context, m *entity.Member) (*entity.Member, error)
	MemberUpdate(ctx context.Context, m *entity.Member) (*entity.Member, error)
	MemberDelete(ctx context.Context, id int64) (*entity.Member, error)
	MembersByBatch(ctx context.Context, batchCode string) ([]*entity.Member, error)
	RecentMembers(ctx context.Context) ([]*entity.Member, error)
	BatchCodes(ctx context.Context) ([]string, error)
}

func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		members, err := handler.MemberList(r.Context())
		if err != nil {
			log.Error("member list", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to fetch members"))
			return
		}

		render.JSON(w, r, response.Ok(members))
	}
}

func Create(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		var member entity.Member
		if err := render.Bind(r, &member); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		created, err := handler.MemberCreate(r.Context(), &member)
		if err != nil {
			if errors.Is(err, entity.ErrDuplicateCode) {
				log.Warn("duplicate reference code")
				render.Status(r, 409)
				render.JSON(w, r, response.Error("A member with this reference code already exists"))
				return
			}
			log.Error("member create", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to add member"))
			return
		}
		log.With(slog.Int64("member_id", created.Id)).Debug("member created")

		render.Status(r, 201)
		render.JSON(w, r, response.Ok(created))
	}
}

func Update(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		id, err := memberId(r)
		if err != nil {
			log.Warn("invalid member id", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid member id"))
			return
		}

		var member entity.Member
		if err = render.Bind(r, &member); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		member.Id = id

		updated, err := handler.MemberUpdate(r.Context(), &member)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				render.Status(r, 404)
				render.JSON(w, r, response.Error("Member not found"))
				return
			}
			log.Error("member update", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to update member"))
			return
		}
		log.With(slog.Int64("member_id", id)).Debug("member updated")

		render.JSON(w, r, response.Ok(updated))
	}
}

func Delete(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		id, err := memberId(r)
		if err != nil {
			log.Warn("invalid member id", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid member id"))
			return
		}

		deleted, err := handler.MemberDelete(r.Context(), id)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				render.Status(r, 404)
				render.JSON(w, r, response.Error("Member not found"))
				return
			}
			log.Error("member delete", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to delete member"))
			return
		}
		log.With(slog.Int64("member_id", id)).Debug("member deleted")

		render.JSON(w, r, response.Ok(deleted))
	}
}

func Recent(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		members, err := handler.RecentMembers(r.Context())
		if err != nil {
			log.Error("recent members", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to fetch members"))
			return
		}

		render.JSON(w, r, response.Ok(members))
	}
}

func ByBatch(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		batchCode := chi.URLParam(r, "code")
		members, err := handler.MembersByBatch(r.Context(), batchCode)
		if err != nil {
			log.Error("members by batch", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to fetch members"))
			return
		}

		render.JSON(w, r, response.Ok(members))
	}
}

func Batches(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		codes, err := handler.BatchCodes(r.Context())
		if err != nil {
			log.Error("batch codes", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to fetch batch codes"))
			return
		}

		render.JSON(w, r, response.Ok(codes))
	}
}

func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	log := logger.With(
		sl.Module("http.handlers.members"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	if user := cont.GetUser(r.Context()); user != nil {
		log = log.With(slog.String("user", user.Username))
	}
	return log
}

func memberId(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
