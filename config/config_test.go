package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/airgap-it/tz-wrapped-backend/config"
	"github.com/airgap-it/tz-wrapped-backend/multisig"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
domain: example.com
inactivity_timeout_seconds: 900
contracts:
  - pkh: KT1abc
    multisig_pkh: KT1multisig
    kind: FA2
    display_name: Example Token
    token_id: 0
nodes:
  - name: mainnet
    url: https://mainnet.node.example
    network: mainnet
    selected: true
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	settings, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "example.com", settings.Domain)
	require.Equal(t, int64(900), settings.InactivityTimeoutSeconds)
	require.Len(t, settings.Contracts, 1)
	require.Len(t, settings.Nodes, 1)
	require.True(t, settings.Nodes[0].Selected)

	kind, err := settings.Contracts[0].ContractKind()
	require.NoError(t, err)
	require.Equal(t, multisig.ContractKindFA2, kind)
}

func TestContractKindUnknown(t *testing.T) {
	cs := config.ContractSettings{Kind: "bogus"}
	_, err := cs.ContractKind()
	require.Error(t, err)
}
