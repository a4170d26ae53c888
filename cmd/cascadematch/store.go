package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/cascade/blobstore"
	"github.com/hupe1980/cascade/blobstore/minio"
	"github.com/hupe1980/cascade/blobstore/s3"
)

// openStore resolves a -store value. Anything without a scheme is a local
// directory.
func openStore(ctx context.Context, raw string, minioTLS bool) (blobstore.Store, error) {
	if !strings.Contains(raw, "://") {
		return blobstore.NewLocalStore(raw), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid store %q: %w", raw, err)
	}

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Path), nil

	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("invalid store %q: missing bucket", raw)
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		return s3.NewStore(awss3.NewFromConfig(awsCfg), u.Host, strings.TrimPrefix(u.Path, "/")), nil

	case "minio":
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("invalid store %q: want minio://endpoint/bucket/prefix", raw)
		}

		creds := credentials.NewEnvMinio()
		if u.User != nil {
			secret, _ := u.User.Password()
			creds = credentials.NewStaticV4(u.User.Username(), secret, "")
		}

		client, err := miniogo.New(u.Host, &miniogo.Options{
			Creds:  creds,
			Secure: minioTLS,
		})
		if err != nil {
			return nil, err
		}
		return minio.NewStore(client, bucket, prefix), nil

	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}
