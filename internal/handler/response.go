package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Mentor_Community/internal/middleware"
	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/service"
)

// fail 按错误类型选状态码，统一 {"code":1,"msg":...}
func fail(c *gin.Context, err error) {
	status := pkg.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"code": 1, "msg": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": msg})
}

func userID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

func actor(c *gin.Context) service.Actor {
	role, _ := c.Get(middleware.ContextRoleKey)
	r, _ := role.(model.Role)
	return service.Actor{ID: userID(c), Role: r}
}

func postID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid post id: %w", pkg.ErrInvalidArgument)
	}
	return id, nil
}

// queryInt 缺省时返回 def，格式错误返回 ErrInvalidArgument
func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, pkg.ErrInvalidArgument)
	}
	return n, nil
}
