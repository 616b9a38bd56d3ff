// Command investors runs the investor documents API on its own, for
// deployments that keep the investor pages separate from the CMS.
package main

import (
	"context"
	"os"
	"time"

	"github.com/corpsite/corpsite-api/internal/database"
	"github.com/corpsite/corpsite-api/internal/investor/handler"
	"github.com/corpsite/corpsite-api/internal/investor/service"
	"github.com/corpsite/corpsite-api/internal/tokens"
	"github.com/corpsite/corpsite-api/pkg/logger"
	"github.com/corpsite/corpsite-api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	port := os.Getenv("INVESTORS_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORSMiddleware(os.Getenv("CORS_ORIGIN")))

	// Mongo-backed when MONGODB_URI is set; falls back to memory on failure
	svc := service.NewMemoryService()
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		client, err := database.ConnectWithRetry(context.Background(), uri, 10*time.Second, 3)
		if err != nil {
			logger.Warnf("cannot connect to MongoDB (%v), using memory-backed repo", err)
		} else {
			db := os.Getenv("MONGODB_DATABASE")
			if db == "" {
				db = "corpsite"
			}
			svc = service.NewMongoService(client.Database(db).Collection("investor_documents"))
		}
	}

	// read-only unless a signing secret is shared with the main API
	var ver middleware.Verifier
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		ver = tokens.NewVerifier(secret)
	}
	handler.RegisterInvestorRoutes(r, svc, ver)

	logger.Infof("investors service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
