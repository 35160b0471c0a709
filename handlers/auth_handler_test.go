package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcchakradhar/homenest/authorization"
	"github.com/jcchakradhar/homenest/domain"
	application "github.com/jcchakradhar/homenest/service"
)

type memoryUserStore struct {
	users map[primitive.ObjectID]*domain.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[primitive.ObjectID]*domain.User{}}
}

func (store *memoryUserStore) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	user.ID = primitive.NewObjectID()
	saved := *user
	store.users[user.ID] = &saved
	return user, nil
}

func (store *memoryUserStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := store.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *user
	return &copied, nil
}

func (store *memoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range store.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (store *memoryUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, user := range store.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (store *memoryUserStore) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	for _, user := range store.users {
		if user.ExternalID == externalID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (store *memoryUserStore) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := store.users[user.ID]; !ok {
		return nil, mongo.ErrNoDocuments
	}
	saved := *user
	store.users[user.ID] = &saved
	return user, nil
}

func (store *memoryUserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := store.users[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(store.users, id)
	return nil
}

func newAuthRouter(store domain.UserStore) *mux.Router {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	tracer := trace.NewNoopTracerProvider().Tracer("test")

	service := application.NewAuthService(store, "handler-test-secret", logger, tracer)
	handler := NewAuthHandler(service, logger, tracer)

	router := mux.NewRouter()
	handler.Init(router)
	return router
}

func postJSON(router *mux.Router, target string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, target, bytes.NewBuffer(body)))
	return recorder
}

func accessTokenCookie(recorder *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == authorization.AccessTokenCookie {
			return cookie
		}
	}
	return nil
}

func TestSignupThenSigninSetsCookie(t *testing.T) {
	router := newAuthRouter(newMemoryUserStore())

	recorder := postJSON(router, "/api/auth/signup", map[string]string{
		"username": "janedoe",
		"email":    "jane@example.com",
		"password": "s3cret-pass",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if got := recorder.Result().Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("content type must be set before the status line, got %q", got)
	}

	recorder = postJSON(router, "/api/auth/signin", map[string]string{
		"email":    "jane@example.com",
		"password": "s3cret-pass",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("signin: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	cookie := accessTokenCookie(recorder)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("signin must set the access token cookie")
	}
	if !cookie.HttpOnly {
		t.Error("access token cookie must be http-only")
	}

	var user domain.User
	if err := json.Unmarshal(recorder.Body.Bytes(), &user); err != nil {
		t.Fatalf("decoding signin response: %s", err)
	}
	if user.Password != "" {
		t.Error("signin response must not carry the password")
	}
}

func TestSigninWrongPasswordNoCookie(t *testing.T) {
	router := newAuthRouter(newMemoryUserStore())

	recorder := postJSON(router, "/api/auth/signup", map[string]string{
		"username": "janedoe",
		"email":    "jane@example.com",
		"password": "s3cret-pass",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatal(recorder.Body.String())
	}

	recorder = postJSON(router, "/api/auth/signin", map[string]string{
		"email":    "jane@example.com",
		"password": "wrong",
	})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if accessTokenCookie(recorder) != nil {
		t.Error("failed signin must not set a cookie")
	}
}

func TestGoogleSetsCookie(t *testing.T) {
	store := newMemoryUserStore()
	router := newAuthRouter(store)

	recorder := postJSON(router, "/api/auth/google", map[string]string{
		"name":  "Jane Doe",
		"email": "jane@example.com",
		"photo": "https://example.com/photo.jpg",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if cookie := accessTokenCookie(recorder); cookie == nil || cookie.Value == "" {
		t.Fatal("federated signin must set the access token cookie")
	}
	if len(store.users) != 1 {
		t.Errorf("expected one created user, got %d", len(store.users))
	}
}

func TestSignoutClearsCookie(t *testing.T) {
	router := newAuthRouter(newMemoryUserStore())

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/auth/signout", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	cookie := accessTokenCookie(recorder)
	if cookie == nil {
		t.Fatal("signout must rewrite the access token cookie")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Error("signout must expire the cookie")
	}
}
