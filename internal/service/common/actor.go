//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"

	"google.golang.org/grpc/metadata"
)

// Metadata keys carrying the operator on desk calls.
const (
	MetadataHostname = "x-operator-hostname"
	MetadataUsername = "x-operator-username"
)

// Operator is the person at the desk terminal issuing a call.
type Operator struct {
	Hostname string
	Username string
}

// String formats the operator as user@host.
func (o Operator) String() string {
	if o.Username == "" && o.Hostname == "" {
		return "unknown"
	}

	return o.Username + "@" + o.Hostname
}

// DetectOperator gathers host and user information for the audit trail.
func DetectOperator() (Operator, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Operator{}, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return Operator{}, fmt.Errorf("current user: %w", err)
	}

	return Operator{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// OutgoingOperator attaches the operator to an outgoing call context.
func OutgoingOperator(ctx context.Context, operator Operator) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		MetadataHostname, operator.Hostname,
		MetadataUsername, operator.Username,
	)
}

// IncomingOperator reads the operator from an incoming call context.
func IncomingOperator(ctx context.Context) (Operator, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Operator{}, false
	}

	operator := Operator{
		Hostname: first(md.Get(MetadataHostname)),
		Username: first(md.Get(MetadataUsername)),
	}

	return operator, operator.Hostname != "" || operator.Username != ""
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return strings.TrimSpace(values[0])
}
