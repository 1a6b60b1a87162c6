package server

import (
	"database/sql"
	"fmt"
	"time"

	"buscapet/backend/config"
	"buscapet/backend/db"
	"buscapet/backend/location"
	"buscapet/backend/mapview"
	"buscapet/backend/rabbitmq"
	"buscapet/backend/storage"
	"buscapet/backend/workflow"
	"buscapet/common"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	EndPointHelp          = "/help"
	EndPointMap           = "/map"
	EndPointMapGeoJSON    = "/map.geojson"
	EndPointRegisterPet   = "/pets"
	EndPointPetDetails    = "/pets/:id"
	EndPointAddMessage    = "/pets/:id/messages"
	EndPointResolveCase   = "/pets/:id/resolve"
	EndPointNeighborhoods = "/neighborhoods"
	EndPointStreets       = "/streets"
	EndPointDashboard     = "/dashboard"
)

type handler struct {
	cfg       *config.Config
	dbc       *sql.DB
	store     storage.Store
	registrar *workflow.Registrar
	builder   *mapview.Builder
	locations *location.Resolver
}

// StartService wires the collaborators and runs the HTTP server. It only
// returns on a fatal startup error.
func StartService(cfg *config.Config) {
	log.Info("Starting the service...")

	dbc, err := common.DBConnect(cfg.DB)
	if err != nil {
		log.Fatalf("Error connecting to DB: %v", err)
	}
	defer dbc.Close()

	if err := db.InitSchema(dbc); err != nil {
		log.Fatalf("Error initializing schema: %v", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Error initializing asset store: %v", err)
	}

	h := &handler{
		cfg:   cfg,
		dbc:   dbc,
		store: store,
		registrar: &workflow.Registrar{
			DB:         dbc,
			Store:      store,
			Locations:  location.NewResolver(dbc),
			ScratchDir: cfg.ScratchDir,
			Events:     newPublisher(cfg),
		},
		builder:   &mapview.Builder{DB: dbc, Store: store},
		locations: location.NewResolver(dbc),
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET(EndPointHelp, h.Help)
	router.GET(EndPointMap, h.GetMap)
	router.GET(EndPointMapGeoJSON, h.GetMapGeoJSON)
	router.POST(EndPointRegisterPet, h.RegisterPet)
	router.GET(EndPointPetDetails, h.PetDetails)
	router.POST(EndPointAddMessage, h.AddMessage)
	router.POST(EndPointResolveCase, h.ResolveCase)
	router.GET(EndPointNeighborhoods, h.Neighborhoods)
	router.GET(EndPointStreets, h.Streets)
	router.GET(EndPointDashboard, h.Dashboard)

	if cfg.StorageBackend == "local" {
		// Dev mode serves the stored assets itself.
		router.Static(cfg.LocalStoreURL, cfg.LocalStoreDir)
	}

	router.Run(fmt.Sprintf(":%s", cfg.Port))
	log.Info("Finished the service. Should not ever being seen.")
}

func newStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == "local" {
		return storage.NewLocalStore(cfg.LocalStoreDir, cfg.LocalStoreURL)
	}
	return storage.NewS3Store(cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket,
		cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3UseSSL)
}

// newPublisher returns nil when no AMQP URL is configured; the case feed
// is optional and a broker outage must not block registrations.
func newPublisher(cfg *config.Config) workflow.Publisher {
	if cfg.AMQPURL == "" {
		return nil
	}
	p, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		log.Errorf("AMQP publisher unavailable, case events disabled: %v", err)
		return nil
	}
	return p
}
