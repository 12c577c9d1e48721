package httpapi

import (
	"net/http"

	"Linkup/logger"
	midsec "Linkup/middleware/security"
	"Linkup/module/chat/model"
	chatservice "Linkup/module/chat/service"
	"Linkup/module/chat/store"
	"Linkup/module/realtime/presence"
	errs "Linkup/tools/errs"
	"Linkup/tools/security"

	"github.com/gin-gonic/gin"
)

// API is the thin JSON surface over the conversation services. The real
// product front door is GraphQL and lives elsewhere; this exists so the
// core is drivable and testable on its own.
type API struct {
	Direct   *chatservice.DirectService
	Groups   *chatservice.GroupService
	Users    store.UserStore
	Registry *presence.Registry
	JWT      security.Options
}

func (a *API) Register(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := r.Group("/api", midsec.Auth(a.JWT))
	{
		api.POST("/messages", a.sendMessage)
		api.GET("/messages/:otherID", a.getMessages)
		api.POST("/messages/:id/seen", a.markSeen)
		api.POST("/messages/seen-all/:otherID", a.markAllSeen)
		api.DELETE("/messages/:id", a.deleteMessage)
		api.POST("/chats/:otherID/clear", a.clearChat)
		api.GET("/chats", a.lastMessages)

		api.POST("/groups", a.createGroup)
		api.GET("/groups", a.listGroups)
		api.POST("/groups/:id/messages", a.sendGroupMessage)
		api.GET("/groups/:id/messages", a.listGroupMessages)
		api.GET("/groups/:id/unread", a.unreadCount)
		api.POST("/groups/:id/members", a.addMembers)
		api.DELETE("/groups/:id/members/:userID", a.removeMember)
		api.POST("/groups/:id/leave", a.leaveGroup)
		api.POST("/groups/:id/name", a.renameGroup)
		api.POST("/groups/:id/admins/:userID", a.promoteAdmin)
		api.POST("/group-messages/:id/read", a.markGroupRead)
		api.DELETE("/group-messages/:id", a.deleteGroupMessage)

		api.GET("/online", a.online)
	}
}

// fail maps the error taxonomy onto HTTP statuses.
func fail(c *gin.Context, err error) {
	switch {
	case errs.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errs.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errs.IsAuthorization(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errs.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.Errorf("[api] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func principal(c *gin.Context) security.Principal {
	p, _ := midsec.Principal(c)
	return p
}

type sendMessageReq struct {
	To    string       `json:"to"`
	Body  string       `json:"body"`
	Media *model.Media `json:"media"`
}

func (a *API) sendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail("bad request body"))
		return
	}
	m, err := a.Direct.SendMessage(c.Request.Context(), principal(c).ID, req.To, req.Body, req.Media)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (a *API) getMessages(c *gin.Context) {
	msgs, err := a.Direct.GetMessages(c.Request.Context(), principal(c).ID, c.Param("otherID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (a *API) markSeen(c *gin.Context) {
	m, err := a.Direct.MarkSeen(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (a *API) markAllSeen(c *gin.Context) {
	// the other party is the sender whose messages the caller has read
	if err := a.Direct.MarkAllSeen(c.Request.Context(), c.Param("otherID"), principal(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) deleteMessage(c *gin.Context) {
	if err := a.Direct.DeleteMessage(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) clearChat(c *gin.Context) {
	if err := a.Direct.ClearChat(c.Request.Context(), principal(c).ID, c.Param("otherID")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) lastMessages(c *gin.Context) {
	msgs, err := a.Direct.LastMessages(c.Request.Context(), principal(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

type createGroupReq struct {
	Name       string   `json:"name"`
	MemberIDs  []string `json:"memberIds"`
	MaxMembers int      `json:"maxMembers"`
}

func (a *API) createGroup(c *gin.Context) {
	var req createGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail("bad request body"))
		return
	}
	g, err := a.Groups.CreateGroup(c.Request.Context(), principal(c).ID, req.Name, req.MemberIDs, req.MaxMembers)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (a *API) listGroups(c *gin.Context) {
	gs, err := a.Groups.ListGroups(c.Request.Context(), principal(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gs)
}

type sendGroupMessageReq struct {
	Content string       `json:"content"`
	Media   *model.Media `json:"media"`
	ReplyTo string       `json:"replyTo"`
}

func (a *API) sendGroupMessage(c *gin.Context) {
	var req sendGroupMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail("bad request body"))
		return
	}
	m, err := a.Groups.SendGroupMessage(c.Request.Context(), c.Param("id"), principal(c).ID, req.Content, req.Media, req.ReplyTo)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (a *API) listGroupMessages(c *gin.Context) {
	msgs, err := a.Groups.ListGroupMessages(c.Request.Context(), c.Param("id"), principal(c).ID, 0)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (a *API) unreadCount(c *gin.Context) {
	n, err := a.Groups.GroupUnreadCount(c.Request.Context(), c.Param("id"), principal(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

type membersReq struct {
	UserIDs []string `json:"userIds"`
}

func (a *API) addMembers(c *gin.Context) {
	var req membersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail("bad request body"))
		return
	}
	if err := a.Groups.AddMembers(c.Request.Context(), c.Param("id"), principal(c).ID, req.UserIDs); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) removeMember(c *gin.Context) {
	if err := a.Groups.RemoveMember(c.Request.Context(), c.Param("id"), principal(c).ID, c.Param("userID")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) leaveGroup(c *gin.Context) {
	if err := a.Groups.LeaveGroup(c.Request.Context(), c.Param("id"), principal(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type renameReq struct {
	Name string `json:"name"`
}

func (a *API) renameGroup(c *gin.Context) {
	var req renameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail("bad request body"))
		return
	}
	if err := a.Groups.RenameGroup(c.Request.Context(), c.Param("id"), principal(c).ID, req.Name); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) promoteAdmin(c *gin.Context) {
	if err := a.Groups.PromoteAdmin(c.Request.Context(), c.Param("id"), principal(c).ID, c.Param("userID")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) markGroupRead(c *gin.Context) {
	if err := a.Groups.MarkGroupMessageRead(c.Request.Context(), c.Param("id"), principal(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) deleteGroupMessage(c *gin.Context) {
	if err := a.Groups.DeleteGroupMessage(c.Request.Context(), c.Param("id"), principal(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"online": presence.OnlineUnion(c.Request.Context(), a.Registry, a.Users),
	})
}
