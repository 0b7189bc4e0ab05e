// Package node is a minimal read-only Tezos node RPC client, implementing
// the capability multisig.NodeClient needs: a contract's storage
// expression, its mainParameter entrypoint schema, and the current chain
// id. Grounded on blockwatch-cc-tzgo's internal/compose/fetch.go request
// pattern: context-bound http.Client calls, echa/log debug tracing, and
// tidwall/gjson for walking the JSON-Micheline response without a
// generated unmarshal target.
package node

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"net/http"

	"github.com/airgap-it/tz-wrapped-backend/apierr"
	"github.com/airgap-it/tz-wrapped-backend/micheline"
	"github.com/echa/log"
	"github.com/tidwall/gjson"
)

// Client is a single node's RPC surface. It holds no per-request state and
// is safe to share across operations (unlike multisig.Driver, whose
// storage cache must not outlive one request).
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Log        log.Logger
}

func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: http.DefaultClient, Log: log.Disabled}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, apierr.Wrap(apierr.ErrInternal, "building request for %s: %s", path, err)
	}
	return c.do(req)
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, apierr.Wrap(apierr.ErrInternal, "building request for %s: %s", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	c.Log.Debugf("%s %s", req.Method, req.URL)
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, apierr.Wrap(micheline.NetworkFailure("request to %s failed: %s", req.URL, err), "node request")
	}
	defer res.Body.Close()
	buf, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apierr.Wrap(micheline.NetworkFailure("reading response from %s failed: %s", req.URL, err), "node request")
	}
	if res.StatusCode != http.StatusOK {
		return nil, apierr.Wrap(micheline.NetworkFailure("node returned %s for %s: %s", res.Status, req.URL, string(buf)), "node request")
	}
	return buf, nil
}

// ChainID fetches the currently active chain id, e.g. "NetXdQprcVkpaWU".
func (c *Client) ChainID(ctx context.Context) (string, error) {
	buf, err := c.get(ctx, "/chains/main/chain_id")
	if err != nil {
		return "", err
	}
	result := gjson.ParseBytes(buf)
	if !result.Exists() {
		return "", apierr.Wrap(apierr.ErrInternal, "empty chain_id response")
	}
	return result.String(), nil
}

// MainParameterSchema fetches the mainParameter entrypoint's Michelson
// type.
func (c *Client) MainParameterSchema(ctx context.Context, address string) (micheline.Expr, error) {
	path := fmt.Sprintf("/chains/main/blocks/head/context/contracts/%s/entrypoints/mainParameter", address)
	buf, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	return jsonToExpr(gjson.ParseBytes(buf))
}

// StorageNormalized fetches the contract's storage, normalized with
// Optimized_legacy unparsing so that addresses and keys are rendered as
// packed bytes rather than human-readable strings.
func (c *Client) StorageNormalized(ctx context.Context, address string) (micheline.Expr, error) {
	path := fmt.Sprintf("/chains/main/blocks/head/context/contracts/%s/storage/normalized", address)
	buf, err := c.postJSON(ctx, path, []byte(`{"unparsing_mode":"Optimized_legacy"}`))
	if err != nil {
		return nil, err
	}
	return jsonToExpr(gjson.ParseBytes(buf))
}

// jsonToExpr decodes a node RPC JSON-Micheline value into an Expr. This is
// a distinct translation from the hex codec in the micheline package: RPC
// responses are JSON objects/arrays, never packed hex.
func jsonToExpr(v gjson.Result) (micheline.Expr, error) {
	if v.IsArray() {
		items := v.Array()
		seq := make(micheline.Sequence, len(items))
		for i, item := range items {
			expr, err := jsonToExpr(item)
			if err != nil {
				return nil, err
			}
			seq[i] = expr
		}
		return seq, nil
	}
	if !v.IsObject() {
		return nil, micheline.InvalidType("unexpected JSON-Micheline leaf: %s", v.Raw)
	}

	if s := v.Get("string"); s.Exists() {
		return micheline.String(s.String()), nil
	}
	if b := v.Get("bytes"); b.Exists() {
		raw, err := hex.DecodeString(b.String())
		if err != nil {
			return nil, micheline.HexDecodingFailure(err, "invalid bytes literal %q", b.String())
		}
		return micheline.Bytes(raw), nil
	}
	if n := v.Get("int"); n.Exists() {
		value, ok := new(big.Int).SetString(n.String(), 10)
		if !ok {
			return nil, micheline.ParsingFailure("invalid int literal %q", n.String())
		}
		return micheline.NewIntFromBig(value), nil
	}

	prim := v.Get("prim")
	if !prim.Exists() {
		return nil, micheline.InvalidType("JSON-Micheline object missing prim/string/int/bytes: %s", v.Raw)
	}
	code, ok := micheline.PrimitiveByName(prim.String())
	if !ok {
		return nil, micheline.InvalidType("unknown primitive %q", prim.String())
	}

	var args []micheline.Expr
	for _, a := range v.Get("args").Array() {
		expr, err := jsonToExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, expr)
	}
	p := micheline.NewPrim(code, args...)
	for _, a := range v.Get("annots").Array() {
		p.Annots = append(p.Annots, a.String())
	}
	return p, nil
}
