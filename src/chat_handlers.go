package main

import (
	"classrent/src/boot"
	"classrent/src/chat"
	"classrent/src/types"
	"classrent/src/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

func chatHandlers(g *gin.RouterGroup, svc *boot.Services) *gin.RouterGroup {
	g.
		POST("/chat", func(ctx *gin.Context) {
			var body types.ChatRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			reply := svc.Mediator.Handle(ctx.Request.Context(), &body, chat.Requester{
				ID:   ctx.GetUint("id"),
				Name: ctx.GetString("name"),
				Role: types.UserRole(ctx.GetString("role")),
			})
			ctx.JSON(http.StatusOK, chat.Wrap(reply))
		})
	return g
}
