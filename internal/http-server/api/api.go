package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rolegate/internal/config"
	"rolegate/internal/http-server/handlers/errors"
	"rolegate/internal/http-server/handlers/members"
	"rolegate/internal/http-server/handlers/redemptions"
	"rolegate/internal/http-server/handlers/roles"
	"rolegate/internal/http-server/middleware/authenticate"
	"rolegate/internal/http-server/middleware/timeout"
	"rolegate/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	members.Core
	roles.Core
	redemptions.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, handler))
		rootApi.Route("/members", func(m chi.Router) {
			m.Get("/", members.List(log, handler))
			m.Post("/", members.Create(log, handler))
			m.Get("/recent", members.Recent(log, handler))
			m.Get("/batch/{code}", members.ByBatch(log, handler))
			m.Put("/{id}", members.Update(log, handler))
			m.Delete("/{id}", members.Delete(log, handler))
		})
		rootApi.Get("/batches", members.Batches(log, handler))
		rootApi.Get("/roles", roles.List(log, handler))
		rootApi.Get("/redemptions", redemptions.List(log, handler))
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
