// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/curioswitch/go-curiostack/server"
	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/careerdeck/careerdeck/backend/server/internal/careerdb"
	"github.com/careerdeck/careerdeck/backend/server/internal/chatsync"
	"github.com/careerdeck/careerdeck/backend/server/internal/config"
	"github.com/careerdeck/careerdeck/backend/server/internal/file"
	"github.com/careerdeck/careerdeck/backend/server/internal/handler/applyjob"
	"github.com/careerdeck/careerdeck/backend/server/internal/handler/deletechat"
	"github.com/careerdeck/careerdeck/backend/server/internal/handler/listchats"
	"github.com/careerdeck/careerdeck/backend/server/internal/handler/listjobs"
	"github.com/careerdeck/careerdeck/backend/server/internal/handler/openchat"
	"github.com/careerdeck/careerdeck/backend/server/internal/handler/savejob"
	"github.com/careerdeck/careerdeck/backend/server/internal/handler/sendmessage"
	"github.com/careerdeck/careerdeck/backend/server/internal/handler/watchmessages"
	"github.com/careerdeck/careerdeck/backend/server/internal/jobstore"
)

//go:embed conf/*.yaml
var confFiles embed.FS

func main() {
	conf, _ := fs.Sub(confFiles, "conf")
	os.Exit(server.Main(&config.Config{}, conf, setupServer))
}

func setupServer(ctx context.Context, conf *config.Config, s *server.Server) error {
	mux := server.Mux(s)

	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: conf.Google.Project})
	if err != nil {
		return fmt.Errorf("main: create firebase app: %w", err)
	}

	fbAuth, err := fbApp.Auth(ctx)
	if err != nil {
		return fmt.Errorf("main: create firebase auth client: %w", err)
	}

	firestore, err := fbApp.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("main: create firestore client: %w", err)
	}
	defer func() {
		if err := firestore.Close(); err != nil {
			slog.ErrorContext(ctx, "main: close firestore client", "error", err)
		}
	}()

	storage, err := storage.NewGRPCClient(ctx)
	if err != nil {
		return fmt.Errorf("main: create storage client: %w", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			slog.ErrorContext(ctx, "main: close storage client", "error", err)
		}
	}()
	uploadsBucket := conf.Chat.UploadsBucket
	if uploadsBucket == "" {
		uploadsBucket = conf.Google.Project + "-uploads"
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     conf.Jobs.RedisAddress,
		Password: conf.Jobs.RedisPassword,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.ErrorContext(ctx, "main: close redis client", "error", err)
		}
	}()

	grace := time.Duration(conf.Chat.InFlightGraceSeconds) * time.Second
	engine := chatsync.NewEngine(firestore, file.NewIO(storage, uploadsBucket), grace)

	jobs := jobstore.New(redisClient, careerdb.MatchMode(conf.Jobs.MatchMode))
	jobs.Subscribe(func(uid string) {
		slog.DebugContext(ctx, "main: job state changed", "userId", uid)
	})

	fbMW := firebaseauth.NewMiddleware(fbAuth)
	mux.Use(middleware.Maybe(fbMW, func(r *http.Request) bool {
		return !strings.HasPrefix(r.URL.Path, "/internal/")
	}))

	mux.Post("/api/chats", openchat.NewHandler(engine).OpenChat)
	mux.Get("/api/chats", listchats.NewHandler(engine).ListChats)
	mux.Delete("/api/chats/{chatID}", deletechat.NewHandler(engine).DeleteChat)
	mux.Post("/api/chats/{chatID}/messages", sendmessage.NewHandler(engine).SendMessage)
	mux.Get("/api/chats/{chatID}/messages/watch", watchmessages.NewHandler(engine).WatchMessages)

	mux.Post("/api/jobs/applied", applyjob.NewHandler(jobs).ApplyJob)
	mux.Post("/api/jobs/saved", savejob.NewHandler(jobs).SaveJob)
	mux.Get("/api/jobs", listjobs.NewHandler(jobs).ListJobs)

	if err := server.Start(ctx, s); err != nil {
		return fmt.Errorf("main: starting server: %w", err)
	}
	return nil
}
