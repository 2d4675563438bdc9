package main

import (
	"fmt"
	"log"
	"net/http"

	"circleup/backend/internal/auth"
	"circleup/backend/internal/config"
	"circleup/backend/internal/database"
	"circleup/backend/internal/handler"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "circleup/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Circleup API
// @version         1.0
// @description     This is the API for the Circleup social service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)
	handler.Init(database.DB)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Uploaded media is served directly from disk
	router.Static(config.AppConfig.MediaBase, config.AppConfig.MediaDir)

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("", handler.SearchUsers) // Must be before /:id
			userRoutes.GET("/me", handler.GetMe)
			userRoutes.PUT("/me", handler.UpdateMe)
			userRoutes.DELETE("/me", handler.DeactivateMe)
			userRoutes.GET("/me/relations", handler.GetRelations)
			userRoutes.GET("/:id", handler.GetUserByID)
			userRoutes.GET("/:id/relation", handler.GetRelationStatus)

			// Friendship routes
			userRoutes.POST("/:id/request", handler.SendFriendRequest)
			userRoutes.POST("/:id/remove", handler.RemoveFriend)

			// Direct messages
			userRoutes.POST("/:id/messages", handler.SendDirectMessage)
			userRoutes.GET("/:id/messages", handler.GetDirectMessages)
			userRoutes.GET("/:id/stream", handler.StreamDirectMessages)
		}

		// A user's posts are visible without a login, subject to post visibility
		apiV1.GET("/users/:id/posts", auth.OptionalAuthMiddleware(), handler.GetUserPosts)

		// Friendship request resolution (protected)
		friendshipRoutes := apiV1.Group("/friendships")
		friendshipRoutes.Use(auth.AuthMiddleware())
		{
			friendshipRoutes.POST("/:id/accept", handler.AcceptFriendRequest)
			friendshipRoutes.POST("/:id/decline", handler.DeclineFriendRequest)
		}

		// Group routes (protected)
		groupRoutes := apiV1.Group("/groups")
		groupRoutes.Use(auth.AuthMiddleware())
		{
			groupRoutes.POST("", handler.CreateGroup)
			groupRoutes.GET("", handler.SearchGroups)
			groupRoutes.GET("/:id", handler.GetGroupByID)
			groupRoutes.PUT("/:id", handler.UpdateGroup)
			groupRoutes.GET("/:id/members", handler.GetGroupMembers)
			groupRoutes.POST("/:id/join", handler.JoinGroup)
			groupRoutes.POST("/:id/leave", handler.LeaveGroup)
			groupRoutes.POST("/:id/invite", handler.InviteToGroup)
			groupRoutes.POST("/:id/kick", handler.KickMembers)
			groupRoutes.POST("/:id/transfer", handler.TransferLeadership)
			groupRoutes.POST("/:id/disband", handler.DisbandGroup)
			groupRoutes.POST("/:id/messages", handler.SendGroupMessage)
			groupRoutes.GET("/:id/messages", handler.GetGroupMessages)
			groupRoutes.GET("/:id/stream", handler.StreamGroupMessages)
		}

		// Group invitation routes (protected)
		invitationRoutes := apiV1.Group("/invitations")
		invitationRoutes.Use(auth.AuthMiddleware())
		{
			invitationRoutes.GET("", handler.GetMyInvitations)
			invitationRoutes.POST("/:id/accept", handler.AcceptInvitation)
			invitationRoutes.POST("/:id/decline", handler.DeclineInvitation)
		}

		// Post routes. Reads allow anonymous viewers, writes require a login.
		apiV1.GET("/feed", auth.OptionalAuthMiddleware(), handler.GetFeed)
		apiV1.GET("/posts/:id", auth.OptionalAuthMiddleware(), handler.GetPost)

		postRoutes := apiV1.Group("/posts")
		postRoutes.Use(auth.AuthMiddleware())
		{
			postRoutes.POST("", handler.CreatePost)
			postRoutes.POST("/:id/repost", handler.Repost)
			postRoutes.DELETE("/:id", handler.DeletePost)
		}

		// Media upload (protected)
		apiV1.POST("/media", auth.AuthMiddleware(), handler.UploadMedia)

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
		{
			// Interest tags CRUD
			tags := adminRoutes.Group("/tags")
			{
				tags.POST("", handler.CreateTag)
				tags.GET("", handler.GetTags)
				tags.PUT("/:id", handler.UpdateTag)
				tags.DELETE("/:id", handler.DeleteTag)
			}
		}
	}

	addr := config.AppConfig.ServerAddr
	fmt.Printf("Server is running on %s\n", addr)
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(addr))
}
