package startup

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casbin/casbin"
	"github.com/gorilla/mux"
	"github.com/jub0bs/fcors"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcchakradhar/homenest/authorization"
	"github.com/jcchakradhar/homenest/cache"
	"github.com/jcchakradhar/homenest/casbinAuthorization"
	"github.com/jcchakradhar/homenest/domain"
	"github.com/jcchakradhar/homenest/handlers"
	application "github.com/jcchakradhar/homenest/service"
	"github.com/jcchakradhar/homenest/startup/config"
	"github.com/jcchakradhar/homenest/storage"
	"github.com/jcchakradhar/homenest/store"
)

type Server struct {
	config *config.Config
}

var Logger = logrus.New()

type CustomFormatter struct{}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	msg := fmt.Sprintf("[%s] [%s] %s\n",
		entry.Time.Format("2006-01-02T15:04:05Z07:00"),
		entry.Level,
		entry.Message,
	)

	return []byte(msg), nil
}

func initLogger(logFilePath string) {
	Logger.SetFormatter(&CustomFormatter{})

	if logFilePath == "" {
		Logger.SetOutput(os.Stdout)
		return
	}

	writer, err := rotatelogs.New(
		logFilePath+"_%Y%m%d%H%M",
		rotatelogs.WithRotationTime(15*time.Minute),
	)
	if err != nil {
		Logger.Errorf("Failed to create rotatelogs hook, logging to stdout: %v", err)
		Logger.SetOutput(os.Stdout)
		return
	}
	Logger.SetOutput(writer)
}

func NewServer(config *config.Config) *Server {
	return &Server{
		config: config,
	}
}

func (server *Server) initMongoClient() *mongo.Client {
	client, err := store.GetClient(server.config.HomeNestDBHost, server.config.HomeNestDBPort)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx, client); err != nil {
		Logger.Errorf("Mongo ping failed: %s", err)
	}
	return client
}

func (server *Server) initListingStore(client *mongo.Client, tracer trace.Tracer) domain.ListingStore {
	return store.NewListingMongoDBStore(client, tracer)
}

func (server *Server) initUserStore(client *mongo.Client, tracer trace.Tracer) domain.UserStore {
	return store.NewUserMongoDBStore(client, tracer)
}

func (server *Server) Start() {
	initLogger(server.config.LogFilePath)

	mongoClient := server.initMongoClient()
	defer func(mongoClient *mongo.Client, ctx context.Context) {
		if err := mongoClient.Disconnect(ctx); err != nil {
			Logger.Errorf("Error disconnecting mongo client: %s", err)
		}
	}(mongoClient, context.Background())

	ctx := context.Background()
	exp, err := newExporter(server.config.JaegerAddress)
	if err != nil {
		log.Fatalf("Failed to Initialize Exporter: %v", err)
	}

	tp := newTraceProvider(exp)
	defer func() { _ = tp.Shutdown(ctx) }()
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer("homenest")
	otel.SetTextMapPropagator(propagation.TraceContext{})

	listingStore := server.initListingStore(mongoClient, tracer)
	userStore := server.initUserStore(mongoClient, tracer)

	imageCache := cache.New(server.config.ImageCacheHost, server.config.ImageCachePort, Logger, tracer)
	imageCache.Ping()

	fileStorage, err := storage.New(server.config.HDFSUri, Logger, tracer)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}
	defer fileStorage.Close()
	if err := fileStorage.CreateRoot(); err != nil {
		Logger.Errorf("Error creating storage root: %s", err)
	}

	resolver := server.initIdentityResolver(userStore, tracer)
	guard := authorization.NewGuard(resolver, Logger, tracer)

	listingService := application.NewListingService(listingStore, imageCache, fileStorage, Logger, tracer)
	userService := application.NewUserService(userStore, listingStore, Logger, tracer)
	authService := application.NewAuthService(userStore, server.config.SecretKey, Logger, tracer)

	listingHandler := handlers.NewListingHandler(listingService, Logger, tracer)
	userHandler := handlers.NewUserHandler(userService, Logger, tracer)
	authHandler := handlers.NewAuthHandler(authService, Logger, tracer)

	server.start(listingHandler, userHandler, authHandler, guard, resolver)
}

// initIdentityResolver assembles the provider chain: tokens issued by this
// service verify locally, everything else goes to the hosted provider.
// Successful verifications are memoized for a short while.
func (server *Server) initIdentityResolver(userStore domain.UserStore, tracer trace.Tracer) authorization.IdentityResolver {
	local := authorization.NewLocalResolver(server.config.SecretKey)

	if server.config.AuthProviderURL == "" {
		return authorization.NewCachedResolver(local, 5*time.Minute)
	}

	external := authorization.NewExternalResolver(
		server.config.AuthProviderURL,
		server.config.AuthProviderKey,
		userStore,
		Logger,
		tracer,
	)
	return authorization.NewCachedResolver(authorization.NewChainResolver(local, external), 5*time.Minute)
}

func (server *Server) start(
	listingHandler *handlers.ListingHandler,
	userHandler *handlers.UserHandler,
	authHandler *handlers.AuthHandler,
	guard *authorization.Guard,
	resolver authorization.IdentityResolver,
) {
	router := mux.NewRouter()
	router.Use(MiddlewareContentTypeSet)
	router.Use(ExtractTraceInfoMiddleware)

	enforcer, err := casbin.NewEnforcerSafe("./rbac_model.conf", "./policy.csv")
	if err != nil {
		log.Fatal(err)
	}
	router.Use(casbinAuthorization.CasbinMiddleware(enforcer, casbinAuthorization.ExtractRole(resolver)))

	authHandler.Init(router)
	listingHandler.Init(router, guard)
	userHandler.Init(router, guard)

	cors, err := fcors.AllowAccessWithCredentials(
		fcors.FromOrigins(server.config.ClientOrigin),
		fcors.WithMethods(
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		),
		fcors.WithRequestHeaders("Authorization", "Content-Type"),
	)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", server.config.Port),
		Handler: cors(router),
	}

	wait := time.Second * 15
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Println(err)
		}
	}()

	Logger.Infof("Server listening on port %s", server.config.Port)

	c := make(chan os.Signal, 1)

	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	<-c

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Error Shutting Down Server %s", err)
	}
	log.Println("Server Gracefully Stopped")
}

func newExporter(address string) (*jaeger.Exporter, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(address)))
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func newTraceProvider(exp sdktrace.SpanExporter) *sdktrace.TracerProvider {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("homenest"),
		),
	)

	if err != nil {
		panic(err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(r),
	)
}

func MiddlewareContentTypeSet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, h *http.Request) {
		rw.Header().Add("Content-Type", "application/json")
		rw.Header().Set("X-Content-Type-Options", "nosniff")
		rw.Header().Set("X-Frame-Options", "DENY")

		next.ServeHTTP(rw, h)
	})
}

func ExtractTraceInfoMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
