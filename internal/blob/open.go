package blob

import (
	"context"
	"fmt"
)

// Options selects and configures a backend: "memory", "cloudinary" or "b2".
type Options struct {
	Backend string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	B2AccountID      string
	B2ApplicationKey string
	B2Bucket         string
}

// Open builds the configured store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "cloudinary":
		if opts.CloudinaryCloudName == "" || opts.CloudinaryAPIKey == "" || opts.CloudinaryAPISecret == "" {
			return nil, fmt.Errorf("cloudinary backend needs CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
		return NewCloudinary(opts.CloudinaryCloudName, opts.CloudinaryAPIKey, opts.CloudinaryAPISecret, opts.CloudinaryFolder), nil
	case "b2":
		if opts.B2AccountID == "" || opts.B2ApplicationKey == "" || opts.B2Bucket == "" {
			return nil, fmt.Errorf("b2 backend needs B2_ACCOUNT_ID, B2_APPLICATION_KEY and B2_BUCKET")
		}
		return NewB2(ctx, opts.B2AccountID, opts.B2ApplicationKey, opts.B2Bucket)
	}
	return nil, fmt.Errorf("unknown blob backend %q", opts.Backend)
}
