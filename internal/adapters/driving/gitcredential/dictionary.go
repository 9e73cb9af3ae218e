// Package gitcredential speaks Git's credential helper wire protocol: a
// dictionary of key=value lines on stdin and stdout, terminated by a blank
// line. See git-credential(1) for the attribute contract.
package gitcredential

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
)

// ReadRequest parses one credential dictionary from the reader. The
// dictionary ends at the first empty line or at end of stream. Lines without
// a "=" are dropped so attributes from newer Git versions pass through
// harmlessly, but a stream containing a null byte, or ending mid-attribute,
// is malformed.
func ReadRequest(r io.Reader) (*domain.Request, error) {
	br := bufio.NewReader(r)
	req := &domain.Request{Extra: make(map[string]string)}

	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read request: %w", err)
		}
		eof := err == io.EOF

		terminated := strings.HasSuffix(line, "\n")
		if terminated {
			line = strings.TrimSuffix(line, "\n")
		}
		if strings.ContainsRune(line, '\x00') {
			return nil, fmt.Errorf("%w: null byte in input", domain.ErrMalformedInput)
		}
		if line == "" {
			// Blank line terminator, or a clean end of stream.
			break
		}
		if terminated {
			// Accept CRLF line endings. A bare CR line is not a
			// terminator; it is a malformed line and is dropped.
			line = strings.TrimSuffix(line, "\r")
			if line == "" {
				continue
			}
		}

		key, value, found := strings.Cut(line, "=")
		if !found || key == "" {
			if eof && !terminated && !found {
				return nil, fmt.Errorf("%w: stream ended mid-attribute", domain.ErrMalformedInput)
			}
			logger.Debug("dropping malformed input line")
			if eof {
				break
			}
			continue
		}

		setAttribute(req, key, value)
		if eof {
			break
		}
	}

	return req, nil
}

func setAttribute(req *domain.Request, key, value string) {
	switch strings.ToLower(key) {
	case "protocol":
		req.Protocol = value
	case "host":
		req.Host = value
	case "path":
		req.Path = value
	case "username":
		req.Username = value
	case "password":
		req.Password = value
	case "wwwauth[]":
		req.WWWAuth = append(req.WWWAuth, value)
	default:
		req.Extra[key] = value
	}
	if strings.EqualFold(key, "password") {
		value = logger.Redact(value)
	}
	logger.Debug("request attribute %s=%s", key, value)
}

// WriteCredential emits the response dictionary for a get operation:
// protocol, host, path when the request carried one, then the credential,
// then the blank terminator. The writer is flushed before returning so Git
// never blocks on a partial dictionary.
func WriteCredential(w io.Writer, req *domain.Request, cred *domain.Credential) error {
	bw := bufio.NewWriter(w)

	attrs := []struct{ key, value string }{
		{"protocol", req.Protocol},
		{"host", req.Host},
	}
	if req.Path != "" {
		attrs = append(attrs, struct{ key, value string }{"path", req.Path})
	}
	attrs = append(attrs,
		struct{ key, value string }{"username", cred.Account},
		struct{ key, value string }{"password", cred.Secret},
	)

	for _, attr := range attrs {
		if _, err := fmt.Fprintf(bw, "%s=%s\n", attr.key, attr.value); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	logger.Debug("wrote credential for %s://%s user %s", req.Protocol, req.Host, cred.Account)
	return nil
}
