package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandlerFunc runs once the session passed the router's check
type HandlerFunc func(c *gin.Context, session *Session)

// Router is a wrapper class that adds session checks before the handler runs
type Router struct {
	Base  gin.IRouter
	Guard *Guard
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc, admin bool, deny func(c *gin.Context)) {
	session := cr.Guard.Load(c)
	allowed := session.IsVerified()
	if admin {
		allowed = session.IsAdmin()
	}
	if !allowed {
		deny(c)
		return
	}
	handler(c, session)
}

func redirectHome(c *gin.Context) {
	c.Redirect(http.StatusFound, "/")
}

func redirectAdmin(c *gin.Context) {
	c.Redirect(http.StatusFound, "/admin")
}

func denyJSON(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "access denied"})
}

// GET serves verified participants only, anyone else goes back to the entry page
func (cr *Router) GET(path string, handler HandlerFunc) {
	cr.Base.GET(path, func(c *gin.Context) {
		cr.baseExec(c, handler, false, redirectHome)
	})
}

func (cr *Router) POST(path string, handler HandlerFunc) {
	cr.Base.POST(path, func(c *gin.Context) {
		cr.baseExec(c, handler, false, redirectHome)
	})
}

func (cr *Router) AdminGET(path string, handler HandlerFunc) {
	cr.Base.GET(path, func(c *gin.Context) {
		cr.baseExec(c, handler, true, redirectAdmin)
	})
}

// AdminPOST is meant for the JSON API, so it answers 401 instead of redirecting
func (cr *Router) AdminPOST(path string, handler HandlerFunc) {
	cr.Base.POST(path, func(c *gin.Context) {
		cr.baseExec(c, handler, true, denyJSON)
	})
}
