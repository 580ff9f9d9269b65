package config

import (
	"time"
)

type DB struct {
	Url             string        `envconfig:"URL"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
	Issuer string        `envconfig:"ISSUER" default:"corebank"`
}

type Auth struct {
	Strategy string `envconfig:"STRATEGY" default:"jwt"`
	Jwt      *Jwt   `envconfig:"JWT"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"corebank:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type Kafka struct {
	Brokers string `envconfig:"BROKERS" default:"localhost:9092"`
	GroupID string `envconfig:"GROUP_ID" default:"corebank"`
	Topic   string `envconfig:"TOPIC" default:"corebank.events"`
}

type EventBus struct {
	// Driver is one of memory, redis or kafka.
	Driver     string `envconfig:"DRIVER" default:"memory"`
	// Stream prefixes the Redis stream names.
	Stream     string `envconfig:"STREAM" default:"corebank"`
	Group      string `envconfig:"GROUP" default:"corebank"`
	DLQRetries int    `envconfig:"DLQ_RETRIES" default:"3"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[corebank]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

// Ledger configures the account ledger service.
type Ledger struct {
	BankCode        string        `envconfig:"BANK_CODE" default:"COREBANK"`
	FeeAccount      string        `envconfig:"FEE_ACCOUNT"`
	LockWaitTimeout time.Duration `envconfig:"LOCK_WAIT_TIMEOUT" default:"2s"`
	PerformedBy     string        `envconfig:"PERFORMED_BY" default:"ledger"`
}

// Resilience holds the defaults of every outbound call pipeline.
type Resilience struct {
	Timeout             time.Duration `envconfig:"TIMEOUT" default:"5s"`
	MaxAttempts         int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	InitialBackoff      time.Duration `envconfig:"INITIAL_BACKOFF" default:"100ms"`
	MaxBackoff          time.Duration `envconfig:"MAX_BACKOFF" default:"2s"`
	BreakerWindow       time.Duration `envconfig:"BREAKER_WINDOW" default:"60s"`
	BreakerMinRequests  uint32        `envconfig:"BREAKER_MIN_REQUESTS" default:"10"`
	BreakerFailureRatio float64       `envconfig:"BREAKER_FAILURE_RATIO" default:"0.5"`
	BreakerOpenTimeout  time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" default:"30s"`
	BreakerHalfOpenMax  uint32        `envconfig:"BREAKER_HALF_OPEN_MAX" default:"3"`
}

// Partner configures the partner bank gateway. An empty URL selects the
// in-memory stub.
type Partner struct {
	Url         string        `envconfig:"URL"`
	ApiKey      string        `envconfig:"API_KEY"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	VerifyTTL   time.Duration `envconfig:"VERIFY_TTL" default:"10m"`
}

// Directory configures the customer directory. An empty URL selects the
// static stub.
type Directory struct {
	Url         string        `envconfig:"URL"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"5s"`
}

type App struct {
	Env        string      `envconfig:"APP_ENV" default:"development"`
	Server     *Server     `envconfig:"SERVER"`
	Log        *Log        `envconfig:"LOG"`
	DB         *DB         `envconfig:"DATABASE"`
	Auth       *Auth       `envconfig:"AUTH"`
	Redis      *Redis      `envconfig:"REDIS"`
	Kafka      *Kafka      `envconfig:"KAFKA"`
	EventBus   *EventBus   `envconfig:"EVENT_BUS"`
	RateLimit  *RateLimit  `envconfig:"RATE_LIMIT"`
	Ledger     *Ledger     `envconfig:"LEDGER"`
	Resilience *Resilience `envconfig:"RESILIENCE"`
	Partner    *Partner    `envconfig:"PARTNER"`
	Directory  *Directory  `envconfig:"DIRECTORY"`
}
