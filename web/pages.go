package web

import (
	"net/http"
	"strings"

	"meetgate/auth"
	"meetgate/config"
	"meetgate/i18n"
	"meetgate/invites"
	"meetgate/meeting"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pages serves the HTML side: entry form, meeting page and admin console
type Pages struct {
	Invites *invites.Manager
	Guard   *auth.Guard
	Admin   *auth.Credential
	Rooms   meeting.RoomURLBuilder
	Access  meeting.AccessLogger // nil when access logging is off
	Meeting config.MeetingConfig
	BaseURL string
	Log     *zap.Logger
}

func (p *Pages) Index(c *gin.Context) {
	data := gin.H{}
	if code := c.Query("error"); code != "" {
		data["error"] = translator(c).T(i18n.ErrorKey(code))
	}
	c.HTML(http.StatusOK, "index.tmpl", pageData(c, data))
}

// Verify handles the invite code form
func (p *Pages) Verify(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Redirect(http.StatusFound, "/")
		return
	}
	session := p.Guard.Load(c)
	if !session.Initialize() {
		c.Redirect(http.StatusFound, "/?error="+invites.OutcomeSystemError.String())
		return
	}
	outcome := p.Invites.Submit(c.Request.Context(), c.PostForm("invite_code"), session)
	if outcome != invites.OutcomeOK {
		p.Log.Info("invite code rejected", zap.Stringer("outcome", outcome), zap.String("ip", c.ClientIP()))
		c.Redirect(http.StatusFound, "/?error="+outcome.String())
		return
	}
	c.Redirect(http.StatusFound, "/meeting")
}

// RateLimited is the response to a client submitting codes too quickly
func RateLimited(c *gin.Context) {
	c.Redirect(http.StatusFound, "/?error=rate")
	c.Abort()
}

func (p *Pages) RoomName(tr i18n.Translator) string {
	if tr.IsChinese() {
		return p.Meeting.RoomNameZH
	}
	return p.Meeting.RoomNameEN
}

// requestedRoom honours the ?room= of a share link when it names one of the
// configured rooms
func (p *Pages) requestedRoom(c *gin.Context) (string, bool) {
	name, err := meeting.ValidateRoomName(c.Query("room"))
	if err != nil {
		return "", false
	}
	return name, name == p.Meeting.RoomNameZH || name == p.Meeting.RoomNameEN
}

func (p *Pages) MeetingPage(c *gin.Context, session *auth.Session) {
	room, ok := p.requestedRoom(c)
	if !ok {
		room = p.RoomName(translator(c))
	}
	joinURL := p.Rooms.BuildJoinURL(room)
	shareLink := meeting.ShareLink(p.baseURL(c), room)

	if err := session.JoinRoom(room); err != nil {
		p.Log.Warn("could not record room in session", zap.Error(err))
	}
	if p.Access != nil {
		meta := meeting.ClientMeta{UserAgent: c.Request.UserAgent(), IPAddress: c.ClientIP()}
		if err := p.Access.LogAccess(room, session.InviteCode(), meta); err != nil {
			p.Log.Warn("meeting access not logged", zap.Error(err))
		}
	}
	c.HTML(http.StatusOK, "meeting.tmpl", pageData(c, gin.H{
		"room":       room,
		"join_url":   joinURL,
		"share_link": shareLink,
	}))
}

func (p *Pages) baseURL(c *gin.Context) string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func (p *Pages) Logout(c *gin.Context) {
	p.Guard.Load(c).Destroy()
	c.Redirect(http.StatusFound, "/")
}

// AdminPage shows the console to a logged in admin and the login form to
// everyone else. ?logout=1 drops the admin flag only.
func (p *Pages) AdminPage(c *gin.Context) {
	if c.Query("logout") != "" {
		p.AdminLogout(c)
		return
	}
	session := p.Guard.Load(c)
	if !session.IsAdmin() {
		c.HTML(http.StatusOK, "admin_login.tmpl", pageData(c, nil))
		return
	}
	codes, err := p.Invites.ListAll(c.Request.Context())
	if err != nil {
		p.Log.Error("invite code list failed", zap.Error(err))
	}
	c.HTML(http.StatusOK, "admin.tmpl", pageData(c, gin.H{"codes": codes}))
}

func (p *Pages) AdminLogin(c *gin.Context) {
	session := p.Guard.Load(c)
	if !p.Admin.Check(c.PostForm("admin_password")) {
		p.Log.Warn("admin login failed", zap.String("ip", c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "admin_login.tmpl", pageData(c, gin.H{
			"error": translator(c).T(i18n.PasswordError),
		}))
		return
	}
	if err := session.SetAdmin(true); err != nil {
		p.Log.Error("admin login not saved", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "admin_login.tmpl", pageData(c, gin.H{
			"error": translator(c).T(i18n.ErrorSystem),
		}))
		return
	}
	c.Redirect(http.StatusFound, "/admin")
}

// AdminLogout drops the admin flag, a participant verification in the same
// session survives
func (p *Pages) AdminLogout(c *gin.Context) {
	if err := p.Guard.Load(c).SetAdmin(false); err != nil {
		p.Log.Warn("admin logout not saved", zap.Error(err))
	}
	c.Redirect(http.StatusFound, "/admin")
}

func DisallowRobots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nDisallow: /\n")
}
