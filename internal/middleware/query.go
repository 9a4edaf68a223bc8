package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// QueryFlag accepts 1/true/yes/on in any case. Anything else is false.
func QueryFlag(c *gin.Context, name string) bool {
	v := strings.ToLower(strings.TrimSpace(c.Query(name)))
	switch v {
	case "yes", "on":
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
