package clouddeploy

import (
	"time"

	"github.com/rs/xid"
)

// JobStatus is the lifecycle state of a job. Transitions form the path
// pending → running → {succeeded|failed|cancelled}; terminal states never
// transition again.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCancelled:
		return true
	case JobStatusPending, JobStatusRunning:
		return false
	}

	return false
}

// JobKind is the command a job executes.
type JobKind string

const (
	JobKindDeploy               JobKind = "deploy"
	JobKindRedeploy             JobKind = "redeploy"
	JobKindBuildImage           JobKind = "buildimage"
	JobKindExecuteScript        JobKind = "executescript"
	JobKindCreateInstance       JobKind = "createinstance"
	// JobKindDestroyInstance has no typed helper; submit it through Create
	// with the target instance in Options.
	JobKindDestroyInstance      JobKind = "destroyinstance"
	JobKindDestroyAllInstances  JobKind = "destroyallinstances"
	JobKindRecreateInstances    JobKind = "recreateinstances"
	JobKindUpdateAutoscaling    JobKind = "updateautoscaling"
	JobKindUpdateLifecycleHooks JobKind = "updatelifecyclehooks"
	JobKindPrepareBlueGreen     JobKind = "preparebluegreen"
	JobKindPurgeBlueGreen       JobKind = "purgebluegreen"
	JobKindSwapBlueGreen        JobKind = "swapbluegreen"
	JobKindRollback             JobKind = "rollback"
)

// DeploymentStrategy orders module deployments within a job.
type DeploymentStrategy string

const (
	DeploymentStrategySerial   DeploymentStrategy = "serial"
	DeploymentStrategyParallel DeploymentStrategy = "parallel"
)

// SafeDeploymentStrategy sizes the instance batches taken out of the load
// balancer during a safe deployment.
type SafeDeploymentStrategy string

const (
	SafeDeploymentOneByOne SafeDeploymentStrategy = "1by1"
	SafeDeploymentThird    SafeDeploymentStrategy = "1/3"
	SafeDeploymentQuarter  SafeDeploymentStrategy = "25%"
	SafeDeploymentHalf     SafeDeploymentStrategy = "50%"
)

// ScriptExecutionStrategy selects which instances a script runs on.
type ScriptExecutionStrategy string

const (
	ScriptExecutionSingle   ScriptExecutionStrategy = "single"
	ScriptExecutionSerial   ScriptExecutionStrategy = "serial"
	ScriptExecutionParallel ScriptExecutionStrategy = "parallel"
)

// SwapStrategy controls how blue/green environments trade places.
type SwapStrategy string

const (
	SwapStrategyOverlap  SwapStrategy = "overlap"
	SwapStrategyIsolated SwapStrategy = "isolated"
)

// Job represents a server-tracked long-running operation.
type Job struct {
	ID        string    `json:"id"`
	Kind      JobKind   `json:"kind"`
	AppID     string    `json:"app_id,omitempty"`
	Status    JobStatus `json:"status"`
	Detail    []JobStep `json:"detail,omitempty"`
	Error     string    `json:"error,omitempty"`
	User      string    `json:"user,omitempty"`
	Options   []string  `json:"options,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// JobStep is one entry of a job's free-form progress detail.
type JobStep struct {
	Name    string `json:"name"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// JobCreateRequest represents a raw job submission. The typed command
// helpers on JobsClient build these.
type JobCreateRequest struct {
	Kind         JobKind          `json:"kind"                    validate:"required"`
	AppID        string           `json:"app_id"                  validate:"required"`
	Modules      []ModuleRevision `json:"modules,omitempty"       validate:"dive"`
	Options      []string         `json:"options"`
	InstanceType string           `json:"instance_type,omitempty"`

	// IdempotencyKey marks the submission safe to retry.
	IdempotencyKey string `json:"-"`
}

// ModuleRevision names a module and the revision to deploy.
type ModuleRevision struct {
	Name string `json:"name"          validate:"required"`
	Rev  string `json:"rev,omitempty"`
}

// DeployOptions tunes Deploy and Redeploy jobs.
type DeployOptions struct {
	// Strategy defaults to serial.
	Strategy DeploymentStrategy `validate:"omitempty,oneof=serial parallel"`
	// SafeStrategy, when set, deploys in load-balancer-aware batches.
	SafeStrategy   SafeDeploymentStrategy `validate:"omitempty,oneof=1by1 1/3 25% 50%"`
	IdempotencyKey string
}

// BuildImageOptions tunes BuildImage jobs.
type BuildImageOptions struct {
	InstanceType string
	// SkipBootstrap, when non-nil, overrides the provisioner bootstrap.
	SkipBootstrap  *bool
	IdempotencyKey string
}

// ExecuteScriptOptions tunes ExecuteScript jobs. Strategy single requires
// InstanceIP; other strategies require SafeStrategy.
type ExecuteScriptOptions struct {
	// Strategy defaults to serial.
	Strategy ScriptExecutionStrategy `validate:"omitempty,oneof=single serial parallel"`
	// SafeStrategy defaults to 1by1 for non-single strategies.
	SafeStrategy SafeDeploymentStrategy `validate:"omitempty,oneof=1by1 1/3 25% 50%"`
	// InstanceIP targets a single instance.
	InstanceIP string `validate:"omitempty,ip"`
	// ModuleContext names the module whose directory the script runs in.
	ModuleContext  string
	IdempotencyKey string
}

// CreateInstanceOptions tunes CreateInstance jobs. A private IP requires a
// subnet.
type CreateInstanceOptions struct {
	SubnetID         string `validate:"omitempty,startswith=subnet-"`
	PrivateIPAddress string `validate:"omitempty,ip"`
	IdempotencyKey   string
}

// NewIdempotencyKey returns a fresh globally-unique idempotency key.
func NewIdempotencyKey() string {
	return xid.New().String()
}
