package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"meetgate/auth"
	"meetgate/invites"
	"meetgate/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// datetime-local inputs post this layout, interpreted in server local time
const datetimeLocalLayout = "2006-01-02T15:04"

type AdminRequest struct {
	Action    string `form:"action" json:"action" binding:"required,oneof=generate toggle delete list"`
	Notes     string `form:"notes" json:"notes" binding:"max=1000"`
	ExpiresAt string `form:"expires_at" json:"expires_at"`
	ID        uint64 `form:"id" json:"id"`
}

type GenerateResponse struct {
	Response
	Code string `json:"code"`
}

type ListResponse struct {
	Response
	Codes []models.InviteCode `json:"codes"`
}

// AdminAPI serves the invite code management actions
type AdminAPI struct {
	Invites *invites.Manager
	Log     *zap.Logger
}

func (a *AdminAPI) Action(c *gin.Context, _ *auth.Session) {
	req := AdminRequest{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, BadInputResponse)
		return
	}
	ctx := c.Request.Context()
	switch req.Action {
	case "generate":
		expiresAt, err := ParseExpiresAt(req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Error: "invalid expires_at"})
			return
		}
		code, err := a.Invites.Generate(ctx, strings.TrimSpace(req.Notes), expiresAt)
		if errors.Is(err, invites.ErrGenerationExhausted) {
			c.JSON(http.StatusInternalServerError, ExhaustedResponse)
			return
		}
		if err != nil {
			a.Log.Error("invite code generation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, DBErrorResponse)
			return
		}
		c.JSON(http.StatusOK, GenerateResponse{Response: OKResponse, Code: code})
	case "toggle":
		c.JSON(http.StatusOK, Response{Success: a.Invites.Toggle(ctx, req.ID)})
	case "delete":
		c.JSON(http.StatusOK, Response{Success: a.Invites.Delete(ctx, req.ID)})
	case "list":
		codes, err := a.Invites.ListAll(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, ListResponse{Response: DBErrorResponse, Codes: codes})
			return
		}
		c.JSON(http.StatusOK, ListResponse{Response: OKResponse, Codes: codes})
	}
}

// ParseExpiresAt accepts RFC 3339 or the datetime-local form value. Empty
// means the code never expires.
func ParseExpiresAt(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(datetimeLocalLayout, value, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
