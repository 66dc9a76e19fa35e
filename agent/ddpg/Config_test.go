package ddpg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/goddpg/agent"
)

func TestConfigListTypeMatchesItsConfigs(t *testing.T) {
	var list agent.ConfigList = ConfigList{}

	require.Equal(t, agent.DDPGMLP, list.Type())
	require.Equal(t, list.Config().Type(), list.Type())
}
