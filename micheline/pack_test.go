package micheline_test

import (
	"testing"

	"github.com/airgap-it/tz-wrapped-backend/micheline"
	"github.com/stretchr/testify/require"
)

func TestPackFixtures(t *testing.T) {
	tests := []struct {
		name   string
		data   micheline.Expr
		schema micheline.Expr
		hex    string
	}{
		{
			name:   "option(list(string))",
			data:   micheline.NewPrim(micheline.PrimSome, micheline.Sequence{micheline.String("test1"), micheline.String("test2")}),
			schema: micheline.TOption(micheline.TList(micheline.TString())),
			hex:    "05050902000000140100000005746573743101000000057465737432",
		},
		{
			name: "option(map(string,int))",
			data: micheline.NewPrim(micheline.PrimSome, micheline.Sequence{
				micheline.DElt(micheline.String("testKey1"), micheline.NewInt(100)),
				micheline.DElt(micheline.String("testKey2"), micheline.NewInt(200)),
			}),
			schema: micheline.TOption(micheline.TMap(micheline.TString(), micheline.TInt())),
			hex:    "050509020000002407040100000008746573744b65793100a40107040100000008746573744b657932008803",
		},
		{
			name:   "pair(address,int)",
			data:   micheline.DPair(micheline.String("tz1Ts3m2dXTXB66XN7cg5ALiAvzZY6AxrFd9"), micheline.NewInt(100)),
			schema: micheline.TPair(micheline.TAddress(), micheline.TInt()),
			hex:    "0507070a0000001600005a374e077b2e539f222af1e61964d7487c8b95fe00a401",
		},
		{
			name:   "chain_id",
			data:   micheline.String("NetXdQprcVkpaWU"),
			schema: micheline.TChainID(),
			hex:    "050a000000047a06a770",
		},
		{
			name:   "signature",
			data:   micheline.String("sigNw8i6ih7Z1Mwg7eptvmF9dprwzZ3E5qqSRAzVR1QhktzzTKD1c9gyECbgj4RFXWFcspZvTn22FRPz1QnJwcnvfMB7nc9PSPsXpPT"),
			schema: micheline.TSignature(),
			hex:    "050a00000040073a1c8aff3edfb9b5d4dcc02f4ecea06617a267d67d9ae9293d23676b3e17ea0b6d643e4b85c3f0d6e2d47f670f4ab4e826753a799494123d75d56a29d0c105",
		},
		{
			name:   "key_hash",
			data:   micheline.String("tz1Ts3m2dXTXB66XN7cg5ALiAvzZY6AxrFd9"),
			schema: micheline.TKeyHash(),
			hex:    "050a00000015005a374e077b2e539f222af1e61964d7487c8b95fe",
		},
		{
			name:   "key",
			data:   micheline.String("edpkuAJhbFLfJ4zWbQQWTZNGDg7hrcG1m1CBSWVB3iDHChjuzeaZB6"),
			schema: micheline.TKey(),
			hex:    "050a0000002100444e1f4ab90c304a5ac003d367747aab63815f583ff2330ce159d12c1ecceba1",
		},
		{
			name:   "contract",
			data:   micheline.String("KT1JKNrzC57FtUe3dmYXmm12ucmjDmzbkKrc%transfer"),
			schema: micheline.TContract(micheline.TUnit()),
			hex:    "050a0000001e016ac8111c23353817d663fe21ff7037f9de36a8c4007472616e73666572",
		},
		{
			name:   "timestamp",
			data:   micheline.String("2020-11-10T07:49:28Z"),
			schema: micheline.TTimestamp(),
			hex:    "05008898d2fa0b",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := micheline.Pack(tt.data, tt.schema)
			require.NoError(t, err)
			require.Equal(t, tt.hex, got)
		})
	}
}

func TestPackRejectsShapeMismatch(t *testing.T) {
	_, err := micheline.Pack(micheline.String("not a pair"), micheline.TPair(micheline.TInt(), micheline.TInt()))
	require.Error(t, err)
}
