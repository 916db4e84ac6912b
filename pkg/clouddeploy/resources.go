package clouddeploy

import "time"

// App represents a deployable application definition.
type App struct {
	ID        string    `json:"id,omitempty"         yaml:"id,omitempty"`
	Etag      string    `json:"etag,omitempty"       yaml:"etag,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`

	Name         string `json:"name"                    yaml:"name"`
	Env          string `json:"env"                     yaml:"env"`
	Role         string `json:"role"                    yaml:"role"`
	Description  string `json:"description,omitempty"   yaml:"description,omitempty"`
	Region       string `json:"region,omitempty"        yaml:"region,omitempty"`
	InstanceType string `json:"instance_type,omitempty" yaml:"instance_type,omitempty"`
	VPCID        string `json:"vpc_id"                  yaml:"vpc_id"`

	BuildInfo        BuildInfo         `json:"build_infos"                 yaml:"build_infos"`
	EnvironmentInfo  *EnvironmentInfo  `json:"environment_infos,omitempty" yaml:"environment_infos,omitempty"`
	Autoscale        *Autoscale        `json:"autoscale,omitempty"         yaml:"autoscale,omitempty"`
	Modules          []Module          `json:"modules"                     yaml:"modules"`
	EnvVars          []EnvVar          `json:"env_vars,omitempty"          yaml:"env_vars,omitempty"`
	LogNotifications []LogNotification `json:"log_notifications,omitempty" yaml:"log_notifications,omitempty"`
	BlueGreen        *BlueGreen        `json:"blue_green,omitempty"        yaml:"blue_green,omitempty"`
	SafeDeployment   *SafeDeployment   `json:"safe_deployment,omitempty"   yaml:"safe_deployment,omitempty"`
	Features         []Feature         `json:"features,omitempty"          yaml:"features,omitempty"`
}

// AppCreateRequest represents a request to register an application. Required
// attributes are declared through validate tags and checked locally before
// any request is sent.
type AppCreateRequest struct {
	Name         string `json:"name"                    yaml:"name"                    validate:"required,max=64"`
	Env          string `json:"env"                     yaml:"env"                     validate:"required,lowercase"`
	Role         string `json:"role"                    yaml:"role"                    validate:"required,lowercase"`
	Description  string `json:"description,omitempty"   yaml:"description,omitempty"`
	Region       string `json:"region,omitempty"        yaml:"region,omitempty"`
	InstanceType string `json:"instance_type,omitempty" yaml:"instance_type,omitempty"`
	VPCID        string `json:"vpc_id"                  yaml:"vpc_id"                  validate:"required,startswith=vpc-"`

	BuildInfo        BuildInfo         `json:"build_infos"                 yaml:"build_infos"                 validate:"required"`
	EnvironmentInfo  *EnvironmentInfo  `json:"environment_infos,omitempty" yaml:"environment_infos,omitempty" validate:"omitempty"`
	Autoscale        *Autoscale        `json:"autoscale,omitempty"         yaml:"autoscale,omitempty"         validate:"omitempty"`
	Modules          []Module          `json:"modules"                     yaml:"modules"                     validate:"required,min=1,dive"`
	EnvVars          []EnvVar          `json:"env_vars,omitempty"          yaml:"env_vars,omitempty"          validate:"dive"`
	LogNotifications []LogNotification `json:"log_notifications,omitempty" yaml:"log_notifications,omitempty" validate:"dive"`
	BlueGreen        *BlueGreen        `json:"blue_green,omitempty"        yaml:"blue_green,omitempty"`
	SafeDeployment   *SafeDeployment   `json:"safe_deployment,omitempty"   yaml:"safe_deployment,omitempty"   validate:"omitempty"`
	Features         []Feature         `json:"features,omitempty"          yaml:"features,omitempty"          validate:"dive"`

	// IdempotencyKey, when set, is sent as an Idempotency-Key header and
	// marks the create safe to retry. See NewIdempotencyKey.
	IdempotencyKey string `json:"-" yaml:"-"`
}

// AppUpdateRequest represents a partial application update. Nil fields are
// left unchanged.
type AppUpdateRequest struct {
	Description     *string          `json:"description,omitempty"       yaml:"description,omitempty"`
	InstanceType    *string          `json:"instance_type,omitempty"     yaml:"instance_type,omitempty"`
	Autoscale       *Autoscale       `json:"autoscale,omitempty"         yaml:"autoscale,omitempty"`
	Modules         []Module         `json:"modules,omitempty"           yaml:"modules,omitempty"           validate:"omitempty,min=1,dive"`
	EnvVars         []EnvVar         `json:"env_vars,omitempty"          yaml:"env_vars,omitempty"          validate:"dive"`
	EnvironmentInfo *EnvironmentInfo `json:"environment_infos,omitempty" yaml:"environment_infos,omitempty"`
	SafeDeployment  *SafeDeployment  `json:"safe_deployment,omitempty"   yaml:"safe_deployment,omitempty"`
	Features        []Feature        `json:"features,omitempty"          yaml:"features,omitempty"          validate:"dive"`

	// Etag, when set, is sent as an If-Match precondition so a concurrent
	// modification fails with 412 instead of clobbering it.
	Etag string `json:"-" yaml:"-"`
}

// BuildInfo describes how instance images for an application are built.
type BuildInfo struct {
	SSHUsername string `json:"ssh_username,omitempty" yaml:"ssh_username,omitempty" validate:"omitempty,lowercase"`
	SourceImage string `json:"source_ami"             yaml:"source_ami"             validate:"required,startswith=ami-"`
	SubnetID    string `json:"subnet_id"              yaml:"subnet_id"              validate:"required,startswith=subnet-"`
}

// EnvironmentInfo describes the runtime environment instances launch into.
type EnvironmentInfo struct {
	InstanceProfile string       `json:"instance_profile,omitempty"  yaml:"instance_profile,omitempty"`
	KeyName         string       `json:"key_name,omitempty"          yaml:"key_name,omitempty"`
	PublicIPAddress bool         `json:"public_ip_address,omitempty" yaml:"public_ip_address,omitempty"`
	SecurityGroups  []string     `json:"security_groups,omitempty"   yaml:"security_groups,omitempty"   validate:"dive,startswith=sg-"`
	SubnetIDs       []string     `json:"subnet_ids,omitempty"        yaml:"subnet_ids,omitempty"        validate:"dive,startswith=subnet-"`
	InstanceTags    []Tag        `json:"instance_tags,omitempty"     yaml:"instance_tags,omitempty"     validate:"dive"`
	RootBlockDevice *BlockDevice `json:"root_block_device,omitempty" yaml:"root_block_device,omitempty"`
}

// Tag is a key/value instance tag.
type Tag struct {
	Name  string `json:"tag_name"  yaml:"tag_name"  validate:"required"`
	Value string `json:"tag_value" yaml:"tag_value" validate:"required"`
}

// BlockDevice describes a root volume.
type BlockDevice struct {
	Size int    `json:"size,omitempty" yaml:"size,omitempty" validate:"omitempty,gte=20"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Autoscale bounds the application's scaling group.
type Autoscale struct {
	Name          string `json:"name,omitempty"           yaml:"name,omitempty"`
	EnableMetrics bool   `json:"enable_metrics,omitempty" yaml:"enable_metrics,omitempty"`
	Min           int    `json:"min,omitempty"            yaml:"min,omitempty"            validate:"gte=0"`
	Max           int    `json:"max,omitempty"            yaml:"max,omitempty"            validate:"gte=0"`
}

// Module is a deployable code or system unit within an application.
type Module struct {
	Name           string `json:"name"                       yaml:"name"                       validate:"required"`
	GitRepo        string `json:"git_repo,omitempty"         yaml:"git_repo,omitempty"`
	Path           string `json:"path"                       yaml:"path"                       validate:"required,startswith=/"`
	Scope          string `json:"scope"                      yaml:"scope"                      validate:"required,oneof=system code"`
	UID            int    `json:"uid,omitempty"              yaml:"uid,omitempty"              validate:"gte=0"`
	GID            int    `json:"gid,omitempty"              yaml:"gid,omitempty"              validate:"gte=0"`
	BuildPack      string `json:"build_pack,omitempty"       yaml:"build_pack,omitempty"`
	PreDeploy      string `json:"pre_deploy,omitempty"       yaml:"pre_deploy,omitempty"`
	PostDeploy     string `json:"post_deploy,omitempty"      yaml:"post_deploy,omitempty"`
	AfterAllDeploy string `json:"after_all_deploy,omitempty" yaml:"after_all_deploy,omitempty"`
}

// EnvVar is an environment variable injected into instances.
type EnvVar struct {
	Key   string `json:"var_key"   yaml:"var_key"   validate:"required"`
	Value string `json:"var_value" yaml:"var_value"`
}

// LogNotification subscribes an address to job state transitions.
type LogNotification struct {
	Email     string   `json:"email"      yaml:"email"      validate:"required,email"`
	JobStates []string `json:"job_states" yaml:"job_states" validate:"required,min=1,dive,oneof=* succeeded failed cancelled"`
}

// BlueGreen holds the blue/green topology of an application.
type BlueGreen struct {
	Enabled    bool   `json:"enable_blue_green,omitempty" yaml:"enable_blue_green,omitempty"`
	Color      string `json:"color,omitempty"             yaml:"color,omitempty"             validate:"omitempty,oneof=blue green"`
	IsOnline   bool   `json:"is_online,omitempty"         yaml:"is_online,omitempty"`
	AlterEgoID string `json:"alter_ego_id,omitempty"      yaml:"alter_ego_id,omitempty"`
}

// SafeDeployment configures load-balancer-aware rolling deployments.
type SafeDeployment struct {
	LoadBalancerType string `json:"load_balancer_type,omitempty" yaml:"load_balancer_type,omitempty" validate:"omitempty,oneof=elb alb haproxy"`
	AppTagValue      string `json:"app_tag_value,omitempty"      yaml:"app_tag_value,omitempty"`
	APIPort          int    `json:"api_port,omitempty"           yaml:"api_port,omitempty"           validate:"gte=0"`
	WaitBeforeDeploy int    `json:"wait_before_deploy,omitempty" yaml:"wait_before_deploy,omitempty" validate:"gte=0"`
	WaitAfterDeploy  int    `json:"wait_after_deploy,omitempty"  yaml:"wait_after_deploy,omitempty"  validate:"gte=0"`
}

// Feature is a provisioner recipe applied when building images.
type Feature struct {
	Name        string                 `json:"name"                  yaml:"name"                  validate:"required"`
	Version     string                 `json:"version,omitempty"     yaml:"version,omitempty"`
	Provisioner string                 `json:"provisioner"           yaml:"provisioner"           validate:"required,oneof=ansible salt"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"  yaml:"parameters,omitempty"`
}

// Deployment records a single module deployment.
type Deployment struct {
	ID        string    `json:"id"`
	AppID     string    `json:"app_id"`
	JobID     string    `json:"job_id"`
	Module    string    `json:"module"`
	Revision  string    `json:"revision,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Version is the service build information from GET /version.
type Version struct {
	Revision     string `json:"current_revision"`
	RevisionName string `json:"current_revision_name"`
	RevisionDate string `json:"current_revision_date"`
}
