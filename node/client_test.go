package node_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/airgap-it/tz-wrapped-backend/micheline"
	"github.com/airgap-it/tz-wrapped-backend/node"
	"github.com/stretchr/testify/require"
)

func TestClientChainID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chains/main/chain_id", r.URL.Path)
		w.Write([]byte(`"NetXdQprcVkpaWU"`))
	}))
	defer srv.Close()

	c := node.New(srv.URL)
	chainID, err := c.ChainID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "NetXdQprcVkpaWU", chainID)
}

func TestClientStorageNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"prim":"Pair","args":[{"int":"5"},{"prim":"Pair","args":[{"int":"2"},{"prim":"Unit"}]}]}`))
	}))
	defer srv.Close()

	c := node.New(srv.URL)
	expr, err := c.StorageNormalized(context.Background(), "KT1abc")
	require.NoError(t, err)

	outer, ok := expr.(micheline.Prim)
	require.True(t, ok)
	require.Equal(t, micheline.PrimPair, outer.Code)
	require.Len(t, outer.Args, 2)
}

func TestClientNetworkFailure(t *testing.T) {
	c := node.New("http://127.0.0.1:0")
	_, err := c.ChainID(context.Background())
	require.Error(t, err)
}
