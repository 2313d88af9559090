package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"Mentor_Community/internal/pkg"
)

// Metrics 按路由模板统计耗时，未匹配的路由归到 unmatched
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		pkg.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
