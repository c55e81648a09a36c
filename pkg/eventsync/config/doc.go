/*
Package config loads eventsync settings.

# Layers

Load resolves Settings in three layers, each overriding the previous one:

 1. Defaults(): 1000 events per name, 5 store calls per increment,
    100ms initial backoff, a report every 20s.
 2. An optional YAML or JSON file.
 3. EVENTSYNC_* environment variables.

The result is validated before Load returns, so an invalid retry policy
fails at startup rather than on the first event.

	settings, err := config.Load("eventsync.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	policy := settings.Retry.Policy()

# File Format

Sections mirror the Settings fields:

	retry:
	  max_retries: 5
	  initial_delay: 100ms
	  max_delay: 2s
	  backoff_multiplier: 2
	source:
	  max_events: 1000
	  max_interval: 10ms
	store:
	  driver: sqlite
	  path: ./eventsync.db
	  failure_rate: 0.3
	  max_latency: 50ms
	report:
	  interval: 20s
	log:
	  level: info
	  format: json

Durations accept time.ParseDuration strings; bare numbers are milliseconds.

# Raw Access

Config wraps a decoded map[string]any with typed accessors that return a
default on a missing key or a type mismatch. Section descends into a
nested map. Config is safe for concurrent reads.
*/
package config
