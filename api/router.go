package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "imghash/api/docs"
	"imghash/api/handler"
)

// @title Image Hash API
// @version 1.0
// @description Perceptual image hashing, hash comparison and near-duplicate recognition
// @BasePath /
func Router(hand *handler.Handler, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(allowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  allowOrigins,
			AllowMethods:  []string{"GET", "POST"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.POST("/hash", hand.HashHandler)
	r.POST("/compare", hand.CompareHandler)
	r.POST("/recognize", hand.RecognizeHandler)

	admin := r.Group("/admin")
	{
		admin.POST("/add", hand.AddImageHandler)
		admin.POST("/delete", hand.DeleteImageHandler)
		admin.GET("/images", hand.ListImagesHandler)
		admin.GET("/hello", hand.Hello)
	}
	return r
}
