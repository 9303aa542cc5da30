package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quorum-community/backend/internal/config"
	"github.com/quorum-community/backend/internal/database"
	"github.com/quorum-community/backend/internal/handlers"
	"github.com/quorum-community/backend/internal/middleware"
	"github.com/quorum-community/backend/internal/votes"
)

type Server struct {
	cfg     *config.Config
	db      database.Service
	handler *handlers.Handler
}

// New wires the database, the vote service and the handlers together and
// returns a configured HTTP server.
func New(cfg *config.Config, log *zap.Logger) (*http.Server, error) {
	db, err := database.New(cfg, log)
	if err != nil {
		return nil, err
	}

	store := votes.NewStore(db.GetDB())
	voteSvc := votes.NewService(store, store, log)

	s := &Server{
		cfg:     cfg,
		db:      db,
		handler: handlers.NewHandler(db.GetDB(), voteSvc, []byte(cfg.JWTSecret)),
	}

	router := s.RegisterRoutes()

	log.Info("server starting", zap.String("port", cfg.Port))

	return &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}, nil
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Public reads
		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/:id", s.handler.Post.GetPost)
		api.GET("/posts/:id/score", s.handler.Vote.GetPostScore)
		api.GET("/posts/:id/comments", s.handler.Comment.GetComments)
		api.GET("/comments/:commentId/score", s.handler.Vote.GetCommentScore)
		api.GET("/communities", s.handler.Community.GetCommunities)
		api.GET("/communities/:id", s.handler.Community.GetCommunity)
		api.GET("/users/:id", s.handler.User.GetUserProfile)
		api.GET("/users/:id/posts", s.handler.Post.GetUserPosts)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.Auth([]byte(s.cfg.JWTSecret)))
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.PUT("/posts/:id", s.handler.Post.UpdatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)

			protected.PUT("/posts/:id/vote", s.handler.Vote.SubmitPostVote)
			protected.DELETE("/posts/:id/vote", s.handler.Vote.RemovePostVote)
			protected.GET("/posts/:id/vote", s.handler.Vote.GetPostVote)

			protected.POST("/posts/:id/comments", s.handler.Comment.CreateComment)
			protected.PUT("/comments/:commentId", s.handler.Comment.UpdateComment)
			protected.DELETE("/comments/:commentId", s.handler.Comment.DeleteComment)

			protected.PUT("/comments/:commentId/vote", s.handler.Vote.SubmitCommentVote)
			protected.DELETE("/comments/:commentId/vote", s.handler.Vote.RemoveCommentVote)
			protected.GET("/comments/:commentId/vote", s.handler.Vote.GetCommentVote)

			protected.POST("/communities", s.handler.Community.CreateCommunity)
			protected.POST("/communities/:id/join", s.handler.Community.JoinCommunity)
			protected.DELETE("/communities/:id/join", s.handler.Community.LeaveCommunity)

			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)
		}
	}

	return r
}
