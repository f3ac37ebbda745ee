package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/INLOpen/nexusjoin/combinedkey"
	"github.com/INLOpen/nexusjoin/serde"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quietConfig = `
application_id: cli-test
logging:
  level: error
  output: none
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ckey.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	opts := &rootOptions{}
	cmd := newRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := execute(cmd, opts)
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand(&rootOptions{})
	for _, name := range []string{"encode", "prefix", "decode", "scan"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	for _, flag := range []string{"config", "fk-type", "pk-type"} {
		f := cmd.PersistentFlags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, "", f.DefValue)
	}
}

func TestGoldenOutput(t *testing.T) {
	quiet := writeConfig(t, quietConfig)
	int64Default := writeConfig(t, quietConfig+"schema:\n  default_key_serde: int64\n")

	testCases := []struct {
		name string
		args []string
	}{
		{"encode_string_int32", []string{"encode", "--fk-type", "string", "--pk-type", "int32", "region-1", "42"}},
		{"prefix_string", []string{"prefix", "--fk-type", "string", "region-1"}},
		{"decode_string_int32", []string{"decode", "--fk-type", "string", "--pk-type", "int32", "00000008726567696f6e2d310000002a"}},
		{"encode_default_serde", []string{"encode", "a", "b"}},
		{"encode_empty_foreign_key", []string{"encode", "", "p"}},
		{"encode_uuid_bytes", []string{"encode", "--fk-type", "uuid", "--pk-type", "bytes", "123e4567-e89b-12d3-a456-426614174000", "beef"}},
		{"decode_uuid_bytes", []string{"decode", "--fk-type", "uuid", "--pk-type", "bytes", "00000010123e4567e89b12d3a456426614174000beef"}},
		{"encode_int64_config_default", []string{"--config", int64Default, "encode", "--", "-1", "7"}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := tc.args
			if args[0] != "--config" {
				args = append([]string{"--config", quiet}, args...)
			}
			out, err := runCLI(t, args...)
			require.NoError(t, err)
			g.Assert(t, tc.name, []byte(out))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cfg := writeConfig(t, quietConfig)

	encoded, err := runCLI(t, "--config", cfg, "--fk-type", "int64", "--pk-type", "string", "encode", "9000", "order-17")
	require.NoError(t, err)

	decoded, err := runCLI(t, "--config", cfg, "--fk-type", "int64", "--pk-type", "string", "decode", encoded[:len(encoded)-1])
	require.NoError(t, err)
	assert.Equal(t, "foreign=9000 primary=order-17\n", decoded)

	prefix, err := runCLI(t, "--config", cfg, "--fk-type", "int64", "prefix", "9000")
	require.NoError(t, err)
	assert.Equal(t, prefix[:len(prefix)-1], encoded[:len(prefix)-1])
}

func TestCommandErrors(t *testing.T) {
	cfg := writeConfig(t, quietConfig)

	t.Run("InvalidHex", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfg, "decode", "zz")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid hex input")
	})

	t.Run("CorruptKey", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfg, "decode", "0000")
		require.Error(t, err)
		assert.ErrorIs(t, err, combinedkey.ErrCorruptCombinedKey)
	})

	t.Run("LengthPastEnd", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfg, "decode", "0000000961")
		require.Error(t, err)
		assert.True(t, combinedkey.IsCorruptKey(err))
	})

	t.Run("WrongPrimaryKeyWidth", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfg, "--pk-type", "int32", "decode", "000000016101")
		require.Error(t, err)
		assert.ErrorIs(t, err, serde.ErrInvalidLength)
	})

	t.Run("BadInt", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfg, "--pk-type", "int32", "encode", "a", "abc")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid int32 key")
	})

	t.Run("UnknownSerde", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfg, "--fk-type", "float", "encode", "1", "2")
		require.Error(t, err)
		assert.ErrorIs(t, err, serde.ErrUnknownSerde)
	})

	t.Run("WrongArgCount", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfg, "encode", "only-one")
		require.Error(t, err)
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		bad := writeConfig(t, "store:\n  compression: brotli\n")
		_, err := runCLI(t, "--config", bad, "encode", "a", "b")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown compression type")
	})
}

func TestLogFileClosedOnFailure(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ckey.log")
	cfg := writeConfig(t, "logging:\n  level: debug\n  output: file\n  file: "+logPath+"\n")

	opts := &rootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", cfg, "decode", "0000"})
	require.Error(t, execute(cmd, opts))

	file, ok := opts.logCloser.(*os.File)
	require.True(t, ok, "file output should open an *os.File")
	assert.ErrorIs(t, file.Close(), os.ErrClosed)
}

func TestScan(t *testing.T) {
	pairs := filepath.Join("testdata", "pairs.txt")

	for _, compression := range []string{"none", "snappy", "lz4", "zstd"} {
		t.Run(compression, func(t *testing.T) {
			cfg := writeConfig(t, quietConfig+"store:\n  compression: "+compression+"\n")
			out, err := runCLI(t, "--config", cfg, "scan", "--pairs", pairs, "cust-1")
			require.NoError(t, err)
			assert.Equal(t, "primary=order-1 value=paid\nprimary=order-2 value=shipped in two boxes\n", out)
		})
	}

	t.Run("PrefixDoesNotLeak", func(t *testing.T) {
		cfg := writeConfig(t, quietConfig)
		out, err := runCLI(t, "--config", cfg, "scan", "--pairs", pairs, "cust-10")
		require.NoError(t, err)
		assert.Equal(t, "primary=order-3 value=open\n", out)
	})

	t.Run("UnknownForeignKey", func(t *testing.T) {
		cfg := writeConfig(t, quietConfig)
		out, err := runCLI(t, "--config", cfg, "scan", "--pairs", pairs, "cust-2")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("MissingPairsFlag", func(t *testing.T) {
		cfg := writeConfig(t, quietConfig)
		_, err := runCLI(t, "--config", cfg, "scan", "cust-1")
		require.Error(t, err)
	})

	t.Run("BadLine", func(t *testing.T) {
		cfg := writeConfig(t, quietConfig)
		bad := filepath.Join(t.TempDir(), "bad.txt")
		require.NoError(t, os.WriteFile(bad, []byte("put a b\nupsert a c\n"), 0644))
		_, err := runCLI(t, "--config", cfg, "scan", "--pairs", bad, "a")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})
}
