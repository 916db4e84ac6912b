package clouddeploy

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Resource kinds known to the client.
const (
	KindApplication = "application"
	KindDeployment  = "deployment"
	KindJob         = "job"
)

// ResourceSchema declares how a resource kind maps onto the API. New kinds
// are added by declaring a schema and request types with validate tags; the
// transport logic is shared.
type ResourceSchema struct {
	// Kind is the resource kind name.
	Kind string
	// Path is the collection endpoint.
	Path string
}

var schemas = map[string]ResourceSchema{
	KindApplication: {Kind: KindApplication, Path: "/apps"},
	KindDeployment:  {Kind: KindDeployment, Path: "/deployments"},
	KindJob:         {Kind: KindJob, Path: "/jobs"},
}

// SchemaFor returns the schema declared for a resource kind.
func SchemaFor(kind string) (ResourceSchema, bool) {
	schema, ok := schemas[kind]

	return schema, ok
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateResource checks a request against its declared validate tags.
// Failures wrap ErrValidation and carry the offending fields; no request is
// sent when validation fails.
func ValidateResource(request interface{}) error {
	err := validate.Struct(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return nil
}
