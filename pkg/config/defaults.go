package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "portbuoy"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Admission locks auto-expire so a crashed booker cannot wedge a slot.
	DefaultSlotLockTTL = 10 * time.Second

	DefaultPaginationLimit = 100

	YardModeStatic    = "static"
	YardModeSimulated = "simulated"

	DefaultYardUtilizationMode = YardModeStatic
	DefaultYardUtilizationPct  = 55.0
)
