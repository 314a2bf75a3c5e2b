package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/sigil/config"
	"github.com/cppla/sigil/controllers"
	"github.com/cppla/sigil/middleware"
	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(svc *services.Service) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file; tests log nowhere.
	gl := utils.Logger
	if gin.Mode() != gin.TestMode {
		if l, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
			gl = l
		} else {
			utils.Sugar.Warnw("gin access log unavailable, using app logger", "err", err)
		}
	}
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(svc)
	taskController := controllers.NewTaskController(svc)
	recordController := controllers.NewRecordController(svc)
	progressController := controllers.NewProgressController(svc)
	achievementController := controllers.NewAchievementController(svc)
	allianceController := controllers.NewAllianceController(svc)
	economyController := controllers.NewEconomyController(svc)
	socialController := controllers.NewSocialController(svc)
	statsController := controllers.NewStatsController(svc)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public
	api.GET("/stats", statsController.GetStats)
	api.GET("/leaderboard", statsController.Leaderboard)
	api.GET("/levels", progressController.Curve)
	api.GET("/users/:username", authController.GetUserPublic)
	api.GET("/market/listings", economyController.ListListings)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.GET("/progress", progressController.Summary)

	protected.GET("/tasks", taskController.ListTasks)
	protected.POST("/tasks", taskController.CreateTask)
	protected.GET("/tasks/:id", taskController.GetTask)
	protected.PATCH("/tasks/:id", taskController.UpdateTask)
	protected.DELETE("/tasks/:id", taskController.DeleteTask)

	protected.GET("/records", recordController.ListRecords)
	protected.POST("/records", recordController.LogRecord)
	protected.PATCH("/records/:id", recordController.UpdateRecord)
	protected.DELETE("/records/:id", recordController.DeleteRecord)

	protected.GET("/achievements", achievementController.ListAchievements)
	protected.POST("/achievements/:id/claim", achievementController.ClaimAchievement)

	protected.POST("/economy/convert", economyController.ConvertXPToShards)
	protected.POST("/market/listings", economyController.ListTitle)
	protected.POST("/market/listings/:id/purchase", economyController.PurchaseTitle)
	protected.DELETE("/market/listings/:id", economyController.CancelListing)
	protected.POST("/admin/users/:id/master-bonus", economyController.AwardMasterBonus)

	protected.GET("/alliances", allianceController.ListAlliances)
	protected.POST("/alliances", allianceController.CreateAlliance)
	protected.GET("/alliances/:id", allianceController.GetAlliance)
	protected.DELETE("/alliances/:id", allianceController.Disband)
	protected.POST("/alliances/:id/invitations", allianceController.Invite)
	protected.POST("/alliances/:id/leave", allianceController.Leave)
	protected.GET("/alliances/:id/challenges", allianceController.ListChallenges)
	protected.POST("/alliances/:id/challenges", allianceController.CreateChallenge)
	protected.GET("/invitations", allianceController.ListInvitations)
	protected.POST("/invitations/:id/respond", allianceController.RespondInvitation)
	protected.POST("/challenges/:id/respond", allianceController.RespondChallenge)
	protected.POST("/challenges/:id/complete", allianceController.CompleteChallenge)

	protected.GET("/friends", socialController.ListFriends)
	protected.POST("/friends", socialController.SendFriendRequest)
	protected.POST("/friends/requests/:id/respond", socialController.RespondFriendRequest)
	protected.DELETE("/friends/:id", socialController.RemoveFriend)

	protected.GET("/pacts", socialController.Pacts)
	protected.POST("/pacts", socialController.CreatePact)
	protected.POST("/pacts/:id/complete", socialController.CompletePact)
	protected.DELETE("/pacts/:id", socialController.DeletePact)

	protected.GET("/skills", socialController.ListSkills)
	protected.POST("/skills/:id/unlock", socialController.UnlockSkill)

	protected.GET("/lore", socialController.ListLore)
	protected.POST("/lore", socialController.CreateLore)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
