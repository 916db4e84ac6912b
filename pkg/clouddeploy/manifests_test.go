package clouddeploy_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

const validManifest = `
name: webfront
env: prod
role: webfront
vpc_id: vpc-123456
build_infos:
  source_ami: ami-123456
  subnet_id: subnet-123456
modules:
  - name: frontend
    path: /var/www
    scope: code
env_vars:
  - var_key: LOG_LEVEL
    var_value: info
`

func TestParseAppManifest(t *testing.T) {
	t.Parallel()
	t.Run("valid manifest", func(t *testing.T) {
		t.Parallel()

		request, err := clouddeploy.ParseAppManifest([]byte(validManifest))
		require.NoError(t, err)
		assert.Equal(t, "webfront", request.Name)
		assert.Equal(t, "prod", request.Env)
		assert.Equal(t, "vpc-123456", request.VPCID)
		assert.Equal(t, "ami-123456", request.BuildInfo.SourceImage)
		require.Len(t, request.Modules, 1)
		assert.Equal(t, "frontend", request.Modules[0].Name)
		require.Len(t, request.EnvVars, 1)
		assert.Equal(t, "LOG_LEVEL", request.EnvVars[0].Key)
	})

	t.Run("missing required fields fail validation", func(t *testing.T) {
		t.Parallel()

		_, err := clouddeploy.ParseAppManifest([]byte("name: webfront\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, clouddeploy.ErrValidation)
	})

	t.Run("bad vpc prefix fails validation", func(t *testing.T) {
		t.Parallel()

		manifest := strings.ReplaceAll(validManifest, "vpc-123456", "subnet-123456")

		_, err := clouddeploy.ParseAppManifest([]byte(manifest))
		require.Error(t, err)
		assert.ErrorIs(t, err, clouddeploy.ErrValidation)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		_, err := clouddeploy.ParseAppManifest([]byte("{not yaml"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, clouddeploy.ErrValidation)
	})
}

func TestReadAppManifest(t *testing.T) {
	t.Parallel()

	request, err := clouddeploy.ReadAppManifest(strings.NewReader(validManifest))
	require.NoError(t, err)
	assert.Equal(t, "webfront", request.Name)
}
