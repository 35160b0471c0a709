package handlers

import (
	"encoding/json"
	"io"
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

const maxImageUploadBytes = 10 << 20

type ListingHandler struct {
	service *application.ListingService
	logger  *logrus.Logger
	tracer  trace.Tracer
}

func NewListingHandler(service *application.ListingService, logger *logrus.Logger, tracer trace.Tracer) *ListingHandler {
	return &ListingHandler{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

func (handler *ListingHandler) Init(router *mux.Router, guard *authorization.Guard) {
	getListings := router.Methods(http.MethodGet).Subrouter()
	getListings.HandleFunc("/api/listing/get", handler.Search)
	getListings.HandleFunc("/api/listing/get/{id}", handler.Get)
	getListings.HandleFunc("/api/listing/image/{id}/{imageName}", handler.GetImage)

	createListing := router.Methods(http.MethodPost).Subrouter()
	createListing.HandleFunc("/api/listing/create", handler.Create)
	createListing.HandleFunc("/api/listing/update/{id}", handler.Update)
	createListing.HandleFunc("/api/listing/images/{id}", handler.UploadImages)
	createListing.Use(guard.Middleware)

	deleteListing := router.Methods(http.MethodDelete).Subrouter()
	deleteListing.HandleFunc("/api/listing/delete/{id}", handler.Delete)
	deleteListing.Use(guard.Middleware)
}

func (handler *ListingHandler) Create(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.Create")
	defer span.End()

	identity, ok := authorization.IdentityFromContext(ctx)
	if !ok {
		errorResponse(writer, http.StatusUnauthorized, errors.NoTokenError)
		return
	}

	var listing domain.Listing
	if err := listing.FromJSON(req.Body); err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, err.Error())
		return
	}

	created, err := handler.service.Create(ctx, &listing, identity)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusCreated)
	jsonResponse(created, writer)
}

func (handler *ListingHandler) Get(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.Get")
	defer span.End()

	id, err := listingID(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, errors.InvalidListingID)
		return
	}

	listing, err := handler.service.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	jsonResponse(listing, writer)
}

func (handler *ListingHandler) Update(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.Update")
	defer span.End()

	identity, ok := authorization.IdentityFromContext(ctx)
	if !ok {
		errorResponse(writer, http.StatusUnauthorized, errors.NoTokenError)
		return
	}

	id, err := listingID(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, errors.InvalidListingID)
		return
	}

	var fields map[string]interface{}
	if err := json.NewDecoder(req.Body).Decode(&fields); err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := handler.service.Update(ctx, id, fields, identity)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	jsonResponse(updated, writer)
}

func (handler *ListingHandler) Delete(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.Delete")
	defer span.End()

	identity, ok := authorization.IdentityFromContext(ctx)
	if !ok {
		errorResponse(writer, http.StatusUnauthorized, errors.NoTokenError)
		return
	}

	id, err := listingID(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, errors.InvalidListingID)
		return
	}

	if err := handler.service.Delete(ctx, id, identity); err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	jsonResponse("Listing has been deleted!", writer)
}

func (handler *ListingHandler) Search(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.Search")
	defer span.End()

	search := domain.ParseListingSearch(req.URL.Query())

	listings, err := handler.service.Search(ctx, search)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	jsonResponse(listings, writer)
}

func (handler *ListingHandler) UploadImages(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.UploadImages")
	defer span.End()

	identity, ok := authorization.IdentityFromContext(ctx)
	if !ok {
		errorResponse(writer, http.StatusUnauthorized, errors.NoTokenError)
		return
	}

	id, err := listingID(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, errors.InvalidListingID)
		return
	}

	if err := req.ParseMultipartForm(maxImageUploadBytes); err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, http.StatusBadRequest, "Invalid multipart payload")
		return
	}

	images := map[string][]byte{}
	for _, headers := range req.MultipartForm.File {
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				errorResponse(writer, http.StatusBadRequest, "Unreadable image upload")
				return
			}
			content, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				errorResponse(writer, http.StatusBadRequest, "Unreadable image upload")
				return
			}
			images[header.Filename] = content
		}
	}
	if len(images) == 0 {
		errorResponse(writer, http.StatusBadRequest, "No image uploaded")
		return
	}

	updated, err := handler.service.SaveImages(ctx, id, identity, images)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	jsonResponse(updated, writer)
}

func (handler *ListingHandler) GetImage(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.GetImage")
	defer span.End()

	vars := mux.Vars(req)
	content, err := handler.service.GetImage(ctx, vars["id"], vars["imageName"])
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		errorResponse(writer, errors.StatusOf(err), err.Error())
		return
	}

	writer.Header().Set("Content-Type", http.DetectContentType(content))
	_, err = writer.Write(content)
	if err != nil {
		handler.logger.Errorf("ListingHandler.GetImage : writing response: %s", err)
	}
}

func listingID(req *http.Request) (primitive.ObjectID, error) {
	vars := mux.Vars(req)
	return primitive.ObjectIDFromHex(vars["id"])
}
