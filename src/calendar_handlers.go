package main

import (
	"classrent/src/boot"
	"classrent/src/booking"
	"classrent/src/calendar"
	"classrent/src/middlewares"
	"classrent/src/models"
	"classrent/src/types"
	"classrent/src/utils"
	"errors"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const upcomingLimit = 3

type bulkDay struct {
	Date           string  `json:"date"`
	Available      bool    `json:"available"`
	ConflictReason *string `json:"conflict_reason"`
}

type bulkSpace struct {
	SpaceID       uint      `json:"space_id"`
	SpaceName     string    `json:"space_name"`
	SpaceLocation string    `json:"space_location"`
	Availability  []bulkDay `json:"availability"`
}

func conflict(reason string) *string {
	return &reason
}

// upcoming returns the next active reservations starting at or after now, earliest first.
func upcoming(all []models.Reservation, now time.Time, limit int) []gin.H {
	next := make([]models.Reservation, 0, len(all))
	for _, r := range all {
		if r.Status.IsActive() && !r.StartDatetime.Before(now) {
			next = append(next, r)
		}
	}
	sort.Slice(next, func(i, j int) bool { return next[i].StartDatetime.Before(next[j].StartDatetime) })
	if len(next) > limit {
		next = next[:limit]
	}
	out := make([]gin.H, 0, len(next))
	for i := range next {
		out = append(out, gin.H{
			"id":             next[i].ID,
			"space_name":     next[i].SpaceName(),
			"start_datetime": next[i].StartDatetime,
			"purpose":        next[i].Purpose,
		})
	}
	return out
}

func calendarHandlers(g *gin.RouterGroup, svc *boot.Services) *gin.RouterGroup {
	g.
		GET("/calendar/bookings", func(ctx *gin.Context) {
			var query types.CalendarRangeQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			from, _ := utils.ParseDay(query.StartDate, svc.Location)
			to, _ := utils.ParseDay(query.EndDate, svc.Location)
			if to.Before(from) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not be before start_date"})
				return
			}
			events, err := svc.Mirror.Query(ctx.Request.Context(), from, to.AddDate(0, 0, 1), query.SpaceID)
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			viewer := ctx.GetUint("id")
			data := make([]utils.CalendarEntry, 0, len(events))
			for i := range events {
				data = append(data, utils.CalendarView(&events[i], viewer))
			}
			ctx.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
		}).
		GET("/calendar/availability/:space_id", func(ctx *gin.Context) {
			var params types.SpaceParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			var query types.DateQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			space, err := svc.Policy.Get(ctx.Request.Context(), params.SpaceID)
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			day, _ := utils.ParseDay(query.Date, svc.Location)
			grid, err := svc.Mirror.Availability(ctx.Request.Context(), space, day, svc.Location)
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, grid)
		}).
		GET("/calendar/stats", func(ctx *gin.Context) {
			now := time.Now()
			stats, err := svc.Mirror.Stats(ctx.Request.Context(), now, svc.Location)
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			next := []gin.H{}
			mine, err := svc.Arbitrator.ListForUser(ctx.Request.Context(), ctx.GetUint("id"))
			if err != nil {
				log.Printf("Error retrieving upcoming bookings: %s\n", err.Error())
			} else {
				next = upcoming(mine, now, upcomingLimit)
			}
			ctx.JSON(http.StatusOK, gin.H{
				"today_bookings":     stats.TodayBookings,
				"week_bookings":      stats.WeekBookings,
				"month_bookings":     stats.MonthBookings,
				"popular_spaces":     stats.PopularSpaces,
				"user_next_bookings": next,
				"last_updated":       stats.LastUpdated,
			})
		}).
		POST("/calendar/bulk-availability", func(ctx *gin.Context) {
			var body types.BulkAvailabilityRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			if body.StartTime == "" {
				body.StartTime = "09:00"
			}
			if body.EndTime == "" {
				body.EndTime = "11:00"
			}
			results := []bulkSpace{}
			for _, spaceID := range body.SpaceIDs {
				space, err := svc.Policy.Get(ctx.Request.Context(), spaceID)
				if errors.Is(err, booking.ErrSpaceNotFound) {
					continue
				}
				if err != nil {
					utils.AbortWithBookingError(ctx, err)
					return
				}
				res := bulkSpace{SpaceID: space.ID, SpaceName: space.Name, SpaceLocation: space.Location, Availability: []bulkDay{}}
				for _, date := range body.Dates {
					day, err := utils.ParseDay(date, svc.Location)
					if err != nil {
						res.Availability = append(res.Availability, bulkDay{Date: date, ConflictReason: conflict("Formato data non valido")})
						continue
					}
					grid, err := svc.Mirror.Availability(ctx.Request.Context(), space, day, svc.Location)
					if err != nil {
						utils.AbortWithBookingError(ctx, err)
						return
					}
					entry := bulkDay{Date: date, Available: grid.SlotFree(body.StartTime, body.EndTime)}
					if !entry.Available {
						entry.ConflictReason = conflict("Spazio già occupato")
					}
					res.Availability = append(res.Availability, entry)
				}
				results = append(results, res)
			}
			ctx.JSON(http.StatusOK, gin.H{"results": results})
		}).
		POST("/calendar/system-events", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			var body types.CreateSystemEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, utils.BindingErrors(err))
				return
			}
			event, err := svc.Mirror.AddSystemEvent(ctx.Request.Context(), calendar.SystemEvent{
				Title:       body.Title,
				Description: body.Description,
				SpaceID:     body.SpaceID,
				Start:       body.StartDatetime,
				End:         body.EndDatetime,
				EventType:   body.EventType,
			})
			if err != nil {
				utils.AbortWithBookingError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": event, "message": "Evento di sistema aggiunto al calendario"})
		})
	return g
}
