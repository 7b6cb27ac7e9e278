package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"diary-server/catalog/giphy"
	"diary-server/catalog/spotify"
	"diary-server/core"
	"diary-server/handlers/api/albums"
	"diary-server/handlers/api/auth"
	"diary-server/handlers/api/entries"
	giphyapi "diary-server/handlers/api/giphy"
	spotifyapi "diary-server/handlers/api/spotify"
	"diary-server/handlers/api/todos"
	"diary-server/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func setupRouter(store core.Store, spotifyClient *spotify.Client, giphyClient *giphy.Client) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	corsOptions := cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}

			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}

			switch parsed.Scheme {
			case "http", "https":
				switch parsed.Hostname() {
				case "localhost", "127.0.0.1", "[::1]":
					return true
				}
			case "exp":
				return true
			}

			return false
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	r.Use(cors.Handler(corsOptions))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Post("/api/auth/login", auth.HandleLogin(store))

	r.Route("/api/entries", func(r chi.Router) {
		r.Get("/", entries.HandleList(store))
		r.Post("/", entries.HandleCreate(store))
		r.Get("/date/{date}", entries.HandleListByDate(store))
	})

	r.Route("/api/todos", func(r chi.Router) {
		r.Get("/", todos.HandleList(store))
		r.Post("/", todos.HandleCreate(store))
		r.Patch("/{id}/toggle", todos.HandleToggle(store))
		r.Delete("/{id}", todos.HandleDelete(store))
	})

	r.Route("/api/albums", func(r chi.Router) {
		r.Get("/", albums.HandleList(store))
		r.Post("/", albums.HandleCreate(store))
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", albums.HandleDelete(store))
			r.Get("/pages", albums.HandleListPages(store))
			r.Post("/pages", albums.HandleCreatePage(store))
		})
		r.Put("/{albumId}/pages/{pageId}", albums.HandleUpdatePage(store))
	})

	r.Route("/api/spotify", func(r chi.Router) {
		r.Get("/search", spotifyapi.HandleSearch(spotifyClient))
		r.Get("/token-check", spotifyapi.HandleTokenCheck(spotifyClient))
	})

	r.Route("/api/giphy", func(r chi.Router) {
		r.Get("/search", giphyapi.HandleSearch(giphyClient))
		r.Get("/trending", giphyapi.HandleTrending(giphyClient))
		r.Get("/categories", giphyapi.HandleCategories())
	})

	return r
}

func waitForShutdown(server *http.Server) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithField("error", err).Warn("Forced shutdown")
	}
}

func main() {
	logLevel := flag.String("loglevel", "info", "Set the logging level: debug, info, warn, error, fatal, panic")
	listenAddr := flag.String("listen", ":3000", "Set the server listen address")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on environment")
	}

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)

	// The diary is shared by a fixed pair of authors; DIARY_USERS
	// overrides the default pair.
	if names := os.Getenv("DIARY_USERS"); names != "" {
		authors := []string{}
		for _, name := range strings.Split(names, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				authors = append(authors, trimmed)
			}
		}
		if len(authors) > 0 {
			core.Authors = authors
		}
	}
	logrus.WithField("authors", core.Authors).Info("Configured diary authors")

	auth.Init()
	store := stores.GetStore()

	spotifyClient := spotify.NewClient(os.Getenv("SPOTIFY_CLIENT_ID"), os.Getenv("SPOTIFY_CLIENT_SECRET"))
	if !spotifyClient.Configured() {
		logrus.Warn("Spotify credentials not set. Track search will be unavailable.")
	}
	giphyClient := giphy.NewClient(os.Getenv("GIPHY_API_KEY"))
	if !giphyClient.Configured() {
		logrus.Warn("GIPHY_API_KEY not set. Sticker search will be unavailable.")
	}

	r := setupRouter(store, spotifyClient, giphyClient)

	server := &http.Server{Addr: *listenAddr, Handler: r}
	logrus.WithField("addr", *listenAddr).Info("starting server")
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(server)
}
