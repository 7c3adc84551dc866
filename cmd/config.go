package main

import "time"

type Config struct {
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=5000"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL,default=15s"`
	StaleThreshold  time.Duration `env:"STALE_THRESHOLD,default=10s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
}
