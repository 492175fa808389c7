package config

import (
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// defaultAPIBase is used when api.base is not set.
var defaultAPIBase = map[string]string{
	EnvProduction:  "https://fdapilive.ilovefreegle.org/api",
	EnvDevelopment: "https://fdapidev.ilovefreegle.org/api",
	EnvDebug:       "https://fdapidbg.ilovefreegle.org/api",
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name": "iznik-api",
		"app.env":  EnvProduction,

		// api.base is resolved from app.env after all sources are loaded
		"api.timeout":      "30s",
		"api.retry.delay":  "2s",
		"api.rate.limit":   0,
		"api.rate.burst":   0,
		"api.log.payloads": false,
		"api.log.maxbytes": 2048,

		"report.sink":            SinkLog,
		"report.amqp.exchange":   "",
		"report.amqp.routingkey": "iznik.api.errors",

		"log.level":  "info",
		"log.pretty": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
