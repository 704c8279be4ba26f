package main

import (
	"classrent/src/boot"
	"classrent/src/booking"
	"classrent/src/db"
	"classrent/src/models"
	"classrent/src/models/scopes"
	"classrent/src/types"
	"classrent/src/utils"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type spaceTypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

func splitMaterials(v string) []string {
	var out []string
	for _, m := range strings.Split(v, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func spaceHandlers(g *gin.RouterGroup, svc *boot.Services) *gin.RouterGroup {
	g.
		GET("/spaces", func(ctx *gin.Context) {
			var filters types.SpaceQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			q := db.GetDb().WithContext(ctx.Request.Context()).Scopes(scopes.ActiveSpaces)
			if filters.Type != "" {
				q = q.Where("type = ?", filters.Type)
			}
			if filters.CapacityMin > 0 {
				q = q.Where("capacity >= ?", filters.CapacityMin)
			}
			if materials := splitMaterials(filters.Materials); len(materials) > 0 {
				want, _ := json.Marshal(materials)
				q = q.Where("materials @> ?::jsonb", string(want))
			}
			var spaces []models.Space
			if err := q.Order("name asc").Find(&spaces).Error; err != nil {
				log.Printf("Error listing spaces: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": spaces, "count": len(spaces)})
		}).
		GET("/spaces/types/list", func(ctx *gin.Context) {
			var counts []spaceTypeCount
			err := db.GetDb().WithContext(ctx.Request.Context()).
				Model(&models.Space{}).
				Select("type, count(*) AS count").
				Scopes(scopes.ActiveSpaces).
				Group("type").
				Order("type asc").
				Scan(&counts).
				Error
			if err != nil {
				log.Printf("Error counting space types: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": counts})
		}).
		GET("/spaces/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			space, err := svc.Policy.Get(ctx.Request.Context(), params.ID)
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": space})
		}).
		GET("/spaces/:id/materials", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			space, err := svc.Policy.Get(ctx.Request.Context(), params.ID)
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			materials := []string(space.Materials)
			if materials == nil {
				materials = []string{}
			}
			ctx.JSON(http.StatusOK, gin.H{"space_id": space.ID, "space_name": space.Name, "materials": materials})
		}).
		GET("/spaces/:id/availability", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			var query types.DateQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			space, err := svc.Policy.Get(ctx.Request.Context(), params.ID)
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			day, _ := utils.ParseDay(query.Date, svc.Location)
			booked, err := svc.Store.FindOverlapping(ctx.Request.Context(), space.ID, booking.Interval{Start: day, End: day.AddDate(0, 0, 1)}, nil)
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			slots := make([]gin.H, 0, len(booked))
			for _, r := range booked {
				slots = append(slots, gin.H{
					"id":             r.ID,
					"start_datetime": r.StartDatetime,
					"end_datetime":   r.EndDatetime,
					"status":         r.Status,
				})
			}
			ctx.JSON(http.StatusOK, gin.H{
				"space_id":        space.ID,
				"space_name":      space.Name,
				"date":            query.Date,
				"available_hours": space.OpeningHours(),
				"bookings":        slots,
			})
		})
	return g
}
