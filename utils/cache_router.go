package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
	// CacheNoStore is for pages that carry session specific data
	CacheNoStore = -2
)

// CacheRouter sets cache-control for every route in its group
type CacheRouter struct {
	CacheTime int // seconds, or one of the Cache* constants
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch cr.CacheTime {
		case CacheCustom:
		case CacheNoCache:
			c.Header("cache-control", "no-cache")
		case CacheNoStore:
			c.Header("cache-control", "no-store")
		default:
			c.Header("cache-control", "private, max-age="+strconv.Itoa(cr.CacheTime))
		}
		c.Next()
	}
}
