package main

import (
	"classrent/src/boot"
	"classrent/src/booking"
	"classrent/src/types"
	"classrent/src/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

func bookingHandlers(g *gin.RouterGroup, svc *boot.Services) *gin.RouterGroup {
	list := func(ctx *gin.Context) {
		data, err := svc.Arbitrator.ListForUser(ctx.Request.Context(), ctx.GetUint("id"))
		if err != nil {
			utils.AbortWithBookingError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
	}

	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			r, err := svc.Arbitrator.Create(ctx.Request.Context(), booking.Candidate{
				SpaceID:            body.SpaceID,
				Start:              body.StartDatetime,
				End:                body.EndDatetime,
				Purpose:            body.Purpose,
				MaterialsRequested: body.MaterialsRequested,
				Notes:              body.Notes,
			}, ctx.GetUint("id"))
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": r, "message": "Prenotazione confermata"})
		}).
		GET("/bookings", list).
		GET("/bookings/history", list).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			r, err := svc.Arbitrator.Get(ctx.Request.Context(), params.ID, ctx.GetUint("id"))
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": r})
		}).
		PUT("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			var body types.UpdateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			r, err := svc.Arbitrator.Update(ctx.Request.Context(), params.ID, ctx.GetUint("id"), booking.Patch{
				SpaceID:            body.SpaceID,
				Start:              body.StartDatetime,
				End:                body.EndDatetime,
				Purpose:            body.Purpose,
				MaterialsRequested: body.MaterialsRequested,
				Notes:              body.Notes,
			})
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": r, "message": "Prenotazione aggiornata"})
		}).
		DELETE("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			var body types.CancelBookingRequestBody
			if ctx.Request.ContentLength > 0 {
				if err := ctx.ShouldBindJSON(&body); err != nil {
					ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
					return
				}
			}
			r, err := svc.Arbitrator.Cancel(ctx.Request.Context(), params.ID, ctx.GetUint("id"), body.Reason)
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": r, "message": "Prenotazione cancellata"})
		})
	return g
}
