package repo

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ClientOptions returns the dial options for Spanner clients. With an emulator
// host the scheme is stripped, since gRPC expects host:port.
func ClientOptions(emulatorHost string) []option.ClientOption {
	if emulatorHost == "" {
		return nil
	}
	endpoint := emulatorHost
	if strings.Contains(emulatorHost, "://") {
		endpoint = strings.TrimPrefix(strings.TrimPrefix(emulatorHost, "http://"), "https://")
	}
	return []option.ClientOption{
		option.WithEndpoint(endpoint),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
}

// NewSpannerClient connects to the database, through the emulator when emulatorHost is set
func NewSpannerClient(ctx context.Context, database, emulatorHost string) (*spanner.Client, error) {
	client, err := spanner.NewClient(ctx, database, ClientOptions(emulatorHost)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create spanner client: %w", err)
	}
	return client, nil
}
