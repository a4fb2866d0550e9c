package http

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/gateflow/internal/adapters/postgres"
	"github.com/samirrijal/gateflow/internal/adapters/valkey"
	"github.com/samirrijal/gateflow/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Flows *usecases.FlowService
	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache

	// Validate checks decoded request bodies. SetupRoutes installs a
	// default when nil.
	Validate *validator.Validate
}


// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
