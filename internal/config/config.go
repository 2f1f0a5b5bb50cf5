package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Parametros del motor de similitud y sus caches.
	CommunityCacheTTLMinutes  int `env:"COMMUNITY_CACHE_TTL_MINUTES" envDefault:"15"`
	CommunityCacheMaxEntries  int `env:"COMMUNITY_CACHE_MAX_ENTRIES" envDefault:"5"`
	SimilarityCacheTTLMinutes int `env:"SIMILARITY_CACHE_TTL_MINUTES" envDefault:"30"`
	SimilarityCacheMaxEntries int `env:"SIMILARITY_CACHE_MAX_ENTRIES" envDefault:"100"`
	WarmUpTopUsers            int `env:"WARMUP_TOP_USERS" envDefault:"10"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
