package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcchakradhar/homenest/authorization"
	"github.com/jcchakradhar/homenest/domain"
	"github.com/jcchakradhar/homenest/errors"
	application "github.com/jcchakradhar/homenest/service"
)

type UserHandler struct {
	service *application.UserService
	logger  *logrus.Logger
	tracer  trace.Tracer
}

func NewUserHandler(service *application.UserService, logger *logrus.Logger, tracer trace.Tracer) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

func (handler *UserHandler) Init(router *mux.Router, guard *authorization.Guard) {
	getUser := router.Methods(http.MethodGet).Subrouter()
	getUser.HandleFunc("/api/user/{id}", handler.Get)

	ownListings := router.Methods(http.MethodGet).Subrouter()
	ownListings.HandleFunc("/api/user/listings/{id}", handler.Listings)
	ownListings.Use(guard.Middleware)

	updateUser := router.Methods(http.MethodPost).Subrouter()
	updateUser.HandleFunc("/api/user/update/{id}", handler.Update)
	updateUser.Use(guard.Middleware)

	deleteUser := router.Methods(http.MethodDelete).Subrouter()
	deleteUser.HandleFunc("/api/user/delete/{id}", handler.Delete)
	deleteUser.Use(guard.Middleware)
}

func (handler *UserHandler) Get(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.Get")
	defer span.End()

	id, err := userID(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, errors.InvalidUserID)
		return
	}

	user, err := handler.service.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	jsonResponse(user.WithoutPassword(), writer)
}

func (handler *UserHandler) Update(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.Update")
	defer span.End()

	identity, ok := authorization.IdentityFromContext(ctx)
	if !ok {
		errorResponse(writer, http.StatusUnauthorized, errors.NoTokenError)
		return
	}

	id, err := userID(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, errors.InvalidUserID)
		return
	}

	var payload domain.User
	if err := payload.FromJSON(req.Body); err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := handler.service.Update(ctx, id, &payload, identity)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	jsonResponse(updated, writer)
}

func (handler *UserHandler) Delete(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.Delete")
	defer span.End()

	identity, ok := authorization.IdentityFromContext(ctx)
	if !ok {
		errorResponse(writer, http.StatusUnauthorized, errors.NoTokenError)
		return
	}

	id, err := userID(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, errors.InvalidUserID)
		return
	}

	if err := handler.service.Delete(ctx, id, identity); err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	clearAccessToken(writer)
	jsonResponse("User has been deleted", writer)
}

func (handler *UserHandler) Listings(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.Listings")
	defer span.End()

	identity, ok := authorization.IdentityFromContext(ctx)
	if !ok {
		errorResponse(writer, http.StatusUnauthorized, errors.NoTokenError)
		return
	}

	id, err := userID(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, errors.InvalidUserID)
		return
	}

	listings, err := handler.service.Listings(ctx, id, identity)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	jsonResponse(listings, writer)
}

func userID(req *http.Request) (primitive.ObjectID, error) {
	vars := mux.Vars(req)
	return primitive.ObjectIDFromHex(vars["id"])
}
