package repository

// settings collects the Open options.
type settings struct {
	driver        string
	path          string
	key           string
	redisAddr     string
	redisPassword string
	redisDB       int
	postgresDSN   string
}

// Option configures Open.
type Option func(*settings)

// WithDriver selects the backend: memory, file, sqlite, redis or postgres.
func WithDriver(driver string) Option {
	return func(s *settings) {
		if driver != "" {
			s.driver = driver
		}
	}
}

// WithPath sets the file or sqlite database path.
func WithPath(path string) Option {
	return func(s *settings) { s.path = path }
}

// WithKey names the document in sqlite, redis and postgres.
func WithKey(key string) Option {
	return func(s *settings) {
		if key != "" {
			s.key = key
		}
	}
}

// WithRedis sets the redis connection parameters.
func WithRedis(addr, password string, db int) Option {
	return func(s *settings) {
		s.redisAddr = addr
		s.redisPassword = password
		s.redisDB = db
	}
}

// WithPostgresDSN sets the lib/pq connection string.
func WithPostgresDSN(dsn string) Option {
	return func(s *settings) { s.postgresDSN = dsn }
}
