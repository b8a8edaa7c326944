package handler

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"peerhaven/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwt "github.com/golang-jwt/jwt/v5"
)

func jwtSecret() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("dev-only-secret")
}

// generatePseudonymJWT issues an anonymous-author token.
func generatePseudonymJWT(pseudonym string) (string, error) {
	claims := jwt.MapClaims{
		"pseudonym": pseudonym,
		"exp":       time.Now().Add(time.Hour * 72).Unix(),
		"iss":       "peerhaven-triage",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// GenerateStaffJWT issues a staff token carrying the staff id. Role checks
// load the live staff record per request, so a role change takes effect
// without reissuing tokens.
func GenerateStaffJWT(staffID string) (string, error) {
	claims := jwt.MapClaims{
		"staff_id": staffID,
		"exp":      time.Now().Add(time.Hour * 12).Unix(),
		"iss":      "peerhaven-triage",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("authorization token missing")
	}
	return strings.TrimPrefix(authHeader, "Bearer "), nil
}

func parseClaim(tokenString, claim string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token or expired")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	value, ok := claims[claim].(string)
	if !ok || value == "" {
		return "", errors.New("missing " + claim + " claim")
	}
	return value, nil
}

// pseudonymFromRequest resolves the anonymous author identity of a request.
func (h *Handler) pseudonymFromRequest(c *gin.Context) (string, error) {
	tokenString, err := bearerToken(c)
	if err != nil {
		return "", err
	}
	return parseClaim(tokenString, "pseudonym")
}

// staffFromRequest resolves and loads the staff member behind a request.
func (h *Handler) staffFromRequest(c *gin.Context) (*models.StaffUser, error) {
	tokenString, err := bearerToken(c)
	if err != nil {
		return nil, err
	}
	staffID, err := parseClaim(tokenString, "staff_id")
	if err != nil {
		return nil, err
	}
	return h.Storage.GetStaffByID(staffID)
}

// GetAnonID mints a fresh pseudonym and returns it with its JWT.
func (h *Handler) GetAnonID(c *gin.Context) {
	pseudonym := uuid.New().String()

	token, err := generatePseudonymJWT(pseudonym)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "pseudonym": pseudonym})
}
