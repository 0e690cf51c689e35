package database

// Storage defines the interface the API server boots against
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	// GORM DB access; returns *gorm.DB
	GetDB() interface{}
}
