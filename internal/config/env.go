package config

import (
	"strconv"
	"time"
)

// applyEnv overrides fields from the environment. The variable names are
// the ones the service has always been deployed with.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.str("STORE_BACKEND", &c.Store.Backend)
	e.str("SQLITE_PATH", &c.Store.SQLitePath)
	e.str("MU_SPARQL_ENDPOINT", &c.SPARQL.Endpoint)
	e.str("VIRTUOSO_SPARQL_ENDPOINT", &c.SPARQL.DirectEndpoint)
	e.boolean("USE_DIRECT_QUERIES", &c.SPARQL.UseDirectQueries)
	e.duration("SPARQL_TIMEOUT", &c.SPARQL.Timeout)
	e.integer("VIRTUOSO_RESOURCE_PAGE_SIZE", &c.Engine.ResourcePageSize)
	e.integer("MU_AUTH_PAGE_SIZE", &c.Engine.CopyPageSize)
	e.boolean("KEEP_TEMP_GRAPH", &c.Engine.KeepScratchGraph)
	e.millis("DELTA_TIMEOUT", &c.Delta.Debounce)
	e.str("NATS_URL", &c.Delta.NATS.URL)
	e.str("NATS_SUBJECT", &c.Delta.NATS.Subject)
	e.str("LISTEN_ADDR", &c.Server.Addr)
	if e.str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Telemetry.OTLPEndpoint) {
		c.Telemetry.Exporter = "otlp"
	}
	e.boolean("DEBUG", &c.Log.Debug)
	return e.err
}

// envReader reads typed variables, keeping the first parse error.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(name string) (string, bool) {
	v, ok := e.lookup(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) fail(name, v string, err error) {
	if e.err == nil {
		e.err = &Error{Code: ErrCodeEnv, Field: name, Message: "bad value " + strconv.Quote(v), Err: err}
	}
}

func (e *envReader) str(name string, dst *string) bool {
	v, ok := e.get(name)
	if ok {
		*dst = v
	}
	return ok
}

func (e *envReader) boolean(name string, dst *bool) {
	if v, ok := e.get(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) integer(name string, dst *int) {
	if v, ok := e.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) duration(name string, dst *time.Duration) {
	if v, ok := e.get(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = d
	}
}

func (e *envReader) millis(name string, dst *time.Duration) {
	if v, ok := e.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = time.Duration(n) * time.Millisecond
	}
}
