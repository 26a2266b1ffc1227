// Package config loads typed configuration structs from environment
// variables, with per-type caching so each configuration is parsed once
// for the lifetime of the process.
//
// Values are declared with caarlos0/env tags:
//
//	type RedisConfig struct {
//		URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
//	}
//
// and loaded anywhere with:
//
//	var cfg RedisConfig
//	config.MustLoad(&cfg)
//
// A .env file in the working directory is picked up automatically for
// local development.
package config
