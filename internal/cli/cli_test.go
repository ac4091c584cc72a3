package cli

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/horockey/kvstore/internal/controller/http_controller"
	"github.com/horockey/kvstore/internal/controller/http_controller/dto"
	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/processor"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/inmemory_kv_pairs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctrl, err := http_controller.New[any](
		"127.0.0.1:0",
		processor.New[any](inmemory_kv_pairs.New[any](), zerolog.Nop()),
		zerolog.Nop(),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(ctrl.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	RootCmd.SetOut(out)
	RootCmd.SetErr(&bytes.Buffer{})
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.Execute()
	return out.String(), err
}

func Test_ParseValue(t *testing.T) {
	for _, tc := range []struct {
		raw      string
		expected any
	}{
		{raw: "bar", expected: "bar"},
		{raw: `"bar"`, expected: "bar"},
		{raw: "42", expected: float64(42)},
		{raw: "true", expected: true},
		{raw: `{"a":[1,"b"]}`, expected: map[string]any{"a": []any{float64(1), "b"}}},
		{raw: "{broken", expected: "{broken"},
		{raw: "", expected: ""},
	} {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseValue(tc.raw))
		})
	}
}

func Test_KV(t *testing.T) {
	srv := newServer(t)

	out, err := execute(t, "kv", "set", "foo", `{"a":1}`, "--endpoint", srv.URL)
	require.NoError(t, err)

	var kv dto.KV[any]
	require.NoError(t, json.Unmarshal([]byte(out), &kv))
	assert.Equal(t, dto.KV[any]{Key: "foo", Value: map[string]any{"a": float64(1)}}, kv)

	_, err = execute(t, "kv", "set", "bar", "plain", "--endpoint", srv.URL)
	require.NoError(t, err)

	out, err = execute(t, "kv", "get", "bar", "--endpoint", srv.URL)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &kv))
	assert.Equal(t, "plain", kv.Value)

	out, err = execute(t, "kv", "list", "--values=false", "--endpoint", srv.URL)
	require.NoError(t, err)
	var keys dto.Keys
	require.NoError(t, json.Unmarshal([]byte(out), &keys))
	assert.Equal(t, []string{"bar", "foo"}, keys.Keys)

	out, err = execute(t, "kv", "list", "--values", "--endpoint", srv.URL)
	require.NoError(t, err)
	var kvs []dto.KV[any]
	require.NoError(t, json.Unmarshal([]byte(out), &kvs))
	assert.Equal(t, []dto.KV[any]{
		{Key: "bar", Value: "plain"},
		{Key: "foo", Value: map[string]any{"a": float64(1)}},
	}, kvs)

	_, err = execute(t, "kv", "delete", "foo", "--endpoint", srv.URL)
	require.NoError(t, err)
	_, err = execute(t, "kv", "delete", "foo", "--endpoint", srv.URL)
	require.NoError(t, err)

	_, err = execute(t, "kv", "get", "foo", "--endpoint", srv.URL)
	assert.Error(t, err)
}

func Test_Healthcheck(t *testing.T) {
	srv := newServer(t)

	out, err := execute(t, "healthcheck", "--endpoint", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "up and running\n", out)

	srv.Close()
	_, err = execute(t, "healthcheck", "--endpoint", srv.URL)
	assert.Error(t, err)
}

func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}

func Test_Serve_StorageUnreachable(t *testing.T) {
	port := freePort(t)
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("MONGODB_HOST", "127.0.0.1:1")
	t.Setenv("PORT", strconv.Itoa(port))
	t.Setenv("LOG_LEVEL", "error")

	ts := time.Now()
	_, err := execute(t, "serve")
	require.Error(t, err)
	assert.ErrorAs(t, err, &model.ConnectionError{})
	assert.Less(t, time.Since(ts), 3*time.Second)

	l, err := net.Listen("tcp", "0.0.0.0:"+strconv.Itoa(port))
	require.NoError(t, err, "port must stay unbound")
	require.NoError(t, l.Close())
}

func Test_Version(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "kvstore v"+Version+"\n", out)
}
