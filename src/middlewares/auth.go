package middlewares

import (
	"classrent/src/config"
	"classrent/src/db"
	"classrent/src/models"
	"classrent/src/types"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func bearerToken(ctx *gin.Context) string {
	header := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// ParseToken verifies an HS256 token signed with JWT_SECRET and returns its claims.
func ParseToken(reqToken string) (*types.Claims, error) {
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return []byte(config.JWT_SECRET), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// AuthMiddleware resolves the bearer token to an active user and exposes
// "id", "email", "name" and "role" on the context.
func AuthMiddleware(ctx *gin.Context) {
	reqToken := bearerToken(ctx)
	if reqToken == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims, err := ParseToken(reqToken)
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		if errors.Is(err, jwt.ErrTokenExpired) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			return
		}
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 {
		log.Printf("error parsing claims subject %q\n", claims.Subject)
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	var user models.User
	err = db.GetDb().
		WithContext(ctx.Request.Context()).
		Where("id = ? AND is_active = ?", uint(uid), true).
		First(&user).
		Error
	if err != nil {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ctx.Set("id", user.ID)
	ctx.Set("email", user.Email)
	ctx.Set("name", user.FullName())
	ctx.Set("role", string(user.Role))
}

func RequireRole(role types.UserRole) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if types.UserRole(ctx.GetString("role")) != role {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		ctx.Next()
	}
}
