package gitcredential

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
)

func TestReadRequest(t *testing.T) {
	t.Run("parses the standard attributes", func(t *testing.T) {
		in := "protocol=https\nhost=github.com\npath=org/repo.git\nusername=alice\n\n"

		req, err := ReadRequest(strings.NewReader(in))

		require.NoError(t, err)
		assert.Equal(t, "https", req.Protocol)
		assert.Equal(t, "github.com", req.Host)
		assert.Equal(t, "org/repo.git", req.Path)
		assert.Equal(t, "alice", req.Username)
	})

	t.Run("dictionary may end at end of stream", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader("protocol=https\nhost=github.com\n"))

		require.NoError(t, err)
		assert.Equal(t, "github.com", req.Host)
	})

	t.Run("accepts CRLF line endings", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader("protocol=https\r\nhost=github.com\r\n\r\n"))

		require.NoError(t, err)
		assert.Equal(t, "https", req.Protocol)
		assert.Equal(t, "github.com", req.Host)
	})

	t.Run("bare CR line is not a terminator", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader("protocol=https\n\r\nhost=github.com\n\n"))

		require.NoError(t, err)
		assert.Equal(t, "github.com", req.Host, "parsing must continue past the CR-only line")
	})

	t.Run("attribute keys are case-insensitive", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader("Protocol=https\nHOST=github.com\n\n"))

		require.NoError(t, err)
		assert.Equal(t, "https", req.Protocol)
		assert.Equal(t, "github.com", req.Host)
	})

	t.Run("values keep embedded equals signs", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader("password=a=b=c\n\n"))

		require.NoError(t, err)
		assert.Equal(t, "a=b=c", req.Password)
	})

	t.Run("repeated wwwauth attributes collect in order", func(t *testing.T) {
		in := "host=example.com\nwwwauth[]=Negotiate\nwwwauth[]=Basic realm=\"x\"\n\n"

		req, err := ReadRequest(strings.NewReader(in))

		require.NoError(t, err)
		assert.Equal(t, []string{"Negotiate", `Basic realm="x"`}, req.WWWAuth)
	})

	t.Run("unknown attributes are preserved", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader("host=example.com\ncapability[]=authtype\n\n"))

		require.NoError(t, err)
		assert.Equal(t, "authtype", req.Extra["capability[]"])
	})

	t.Run("lines without an equals sign are dropped", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader("garbage\nhost=example.com\n\n"))

		require.NoError(t, err)
		assert.Equal(t, "example.com", req.Host)
	})

	t.Run("null byte is malformed", func(t *testing.T) {
		_, err := ReadRequest(strings.NewReader("host=exam\x00ple.com\n\n"))

		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})

	t.Run("stream ending mid-attribute is malformed", func(t *testing.T) {
		_, err := ReadRequest(strings.NewReader("host=example.com\nusern"))

		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})

	t.Run("unterminated final attribute with a value is kept", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader("host=example.com\nusername=alice"))

		require.NoError(t, err)
		assert.Equal(t, "alice", req.Username)
	})

	t.Run("empty input yields an empty request", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader(""))

		require.NoError(t, err)
		assert.Empty(t, req.Protocol)
		assert.Error(t, req.Validate())
	})
}

func TestWriteCredential(t *testing.T) {
	t.Run("writes the response dictionary", func(t *testing.T) {
		req := &domain.Request{Protocol: "https", Host: "github.com"}
		cred := domain.NewCredential("git:https://github.com", "alice", "s3cret")
		var out bytes.Buffer

		require.NoError(t, WriteCredential(&out, req, cred))

		assert.Equal(t, "protocol=https\nhost=github.com\nusername=alice\npassword=s3cret\n\n", out.String())
	})

	t.Run("echoes the path only when the request carried one", func(t *testing.T) {
		req := &domain.Request{Protocol: "https", Host: "dev.azure.com", Path: "contoso/_git/widgets"}
		cred := domain.NewCredential("", "alice", "pat")
		var out bytes.Buffer

		require.NoError(t, WriteCredential(&out, req, cred))

		assert.Contains(t, out.String(), "path=contoso/_git/widgets\n")
	})

	t.Run("round trips through the parser", func(t *testing.T) {
		req := &domain.Request{Protocol: "https", Host: "example.com:8443"}
		cred := domain.NewCredential("", "bob", "pw=with=equals")
		var out bytes.Buffer
		require.NoError(t, WriteCredential(&out, req, cred))

		parsed, err := ReadRequest(&out)

		require.NoError(t, err)
		assert.Equal(t, "example.com:8443", parsed.Host)
		assert.Equal(t, "bob", parsed.Username)
		assert.Equal(t, "pw=with=equals", parsed.Password)
	})
}
