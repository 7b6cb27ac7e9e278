package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"diary-server/core"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

var jwtSecret []byte

// AppClaims are the custom claims of the login token.
type AppClaims struct {
	jwt.RegisteredClaims
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type (
	LoginRequest struct {
		Name string `json:"name"`
	}

	LoginUser struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	}

	LoginResponse struct {
		Success bool      `json:"success"`
		Token   string    `json:"token,omitempty"`
		User    LoginUser `json:"user"`
	}
)

// Init reads the token signing secret. Login still works without it,
// just without issuing a token.
func Init() {
	jwtSecret = []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logrus.Warn("JWT_SECRET is not set. Login responses will not carry a token.")
	}
}

func signToken(user *core.User) (string, error) {
	if len(jwtSecret) == 0 {
		return "", nil
	}
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * 24 * time.Hour)),
		},
		Name:   user.Name,
		Avatar: user.Avatar,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// HandleLogin resolves (or creates) the named user and touches lastLogin.
func HandleLogin(store core.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode login request")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, LoginResponse{})
			return
		}

		if !core.IsAuthor(req.Name) {
			logrus.WithField("name", req.Name).Warn("Login attempt with unknown name")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, LoginResponse{})
			return
		}

		user, err := store.FindUserByName(r.Context(), req.Name)
		if errors.Is(err, core.ErrNotFound) {
			user = &core.User{Name: req.Name}
			if _, err = store.CreateUser(r.Context(), user); err != nil {
				logrus.WithField("error", err).Error("Failed to create user")
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, LoginResponse{})
				return
			}
		} else if err != nil {
			logrus.WithField("error", err).Error("Failed to look up user")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, LoginResponse{})
			return
		}

		if err := store.TouchLastLogin(r.Context(), user.ID); err != nil {
			logrus.WithField("error", err).Warn("Failed to touch last login")
		}

		token, err := signToken(user)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to sign login token")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, LoginResponse{})
			return
		}

		render.JSON(w, r, LoginResponse{
			Success: true,
			Token:   token,
			User: LoginUser{
				ID:     user.ID,
				Name:   user.Name,
				Avatar: user.Avatar,
			},
		})
	}
}
