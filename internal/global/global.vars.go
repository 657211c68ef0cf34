package global

import (
	"servicehub/config"
	"servicehub/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_CollectionNames holds the Mongo collection names.
type MongoDB_CollectionNames struct {
	Visits       string
	Jobs         string
	Quotes       string
	Orders       string
	Appointments string
	Bookings     string
	Devices      string
}

// Process-wide handles
var Validate *validator.Validate
var MongoDB_Session *mongo.Client
var MongoDB_ServerConfig *config.Configuration
var MongoDB_ColNames = MongoDB_CollectionNames{
	Visits:       "visits",
	Jobs:         "jobs",
	Quotes:       "quotes",
	Orders:       "orders",
	Appointments: "appointments",
	Bookings:     "bookings",
	Devices:      "devices",
}

// Registries
var RegistryCollections = registry.NewRegistry[*mongo.Collection]()
var RegistryDatabase = registry.NewRegistry[*mongo.Database]()
