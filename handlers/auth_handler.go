package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcchakradhar/homenest/authorization"
	"github.com/jcchakradhar/homenest/domain"
	"github.com/jcchakradhar/homenest/errors"
	application "github.com/jcchakradhar/homenest/service"
)

type AuthHandler struct {
	service *application.AuthService
	logger  *logrus.Logger
	tracer  trace.Tracer
}

func NewAuthHandler(service *application.AuthService, logger *logrus.Logger, tracer trace.Tracer) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

func (handler *AuthHandler) Init(router *mux.Router) {
	authRouter := router.Methods(http.MethodPost).Subrouter()
	authRouter.HandleFunc("/api/auth/signup", handler.Signup)
	authRouter.HandleFunc("/api/auth/signin", handler.Signin)
	authRouter.HandleFunc("/api/auth/google", handler.Google)

	router.HandleFunc("/api/auth/signout", handler.Signout).Methods(http.MethodGet)
}

func (handler *AuthHandler) Signup(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "AuthHandler.Signup")
	defer span.End()

	var user domain.User
	if err := user.FromJSON(req.Body); err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := handler.service.Signup(ctx, &user); err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusCreated)
	jsonResponse("User created successfully", writer)
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (handler *AuthHandler) Signin(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "AuthHandler.Signin")
	defer span.End()

	var credentials signinRequest
	if err := json.NewDecoder(req.Body).Decode(&credentials); err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := handler.service.Signin(ctx, credentials.Email, credentials.Password)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	setAccessToken(writer, token)
	jsonResponse(user, writer)
}

type googleRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
}

func (handler *AuthHandler) Google(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "AuthHandler.Google")
	defer span.End()

	var payload googleRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := handler.service.Google(ctx, payload.Name, payload.Email, payload.Photo)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	setAccessToken(writer, token)
	jsonResponse(user, writer)
}

func (handler *AuthHandler) Signout(writer http.ResponseWriter, req *http.Request) {
	_, span := handler.tracer.Start(req.Context(), "AuthHandler.Signout")
	defer span.End()

	clearAccessToken(writer)
	jsonResponse("User has been logged out!", writer)
}

func setAccessToken(writer http.ResponseWriter, token string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     authorization.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(authorization.TokenDuration),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAccessToken(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     authorization.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
