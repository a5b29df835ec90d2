package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NewRouter wires the HTTP routes onto a gin engine.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	r.POST("/upload", s.UploadFile)
	r.GET("/products", s.ListProducts)
	r.GET("/products/:id", s.GetProduct)
	r.GET("/imports/:job_id", s.GetImport)

	return r
}

// requestID tags every request for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
