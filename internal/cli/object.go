package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/upb/ami-parentage/models"
)

// ObjectOptions holds flags for the object command.
type ObjectOptions struct {
	*RootOptions
	Bucket string
	Keys   []string
	Region string
}

// NewObjectCommand creates the object command.
func NewObjectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ObjectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "object",
		Short: "Replay CloudTrail log objects from S3",
		Long: `Replay CloudTrail log objects from S3, exactly as the Lambda handler would
for a notification naming them. Objects must be gzip-compressed.

Examples:
  ami-parentage-replay object --bucket trail-logs --key AWSLogs/111122223333/CloudTrail/us-east-1/2024/01/01/log.json.gz
  ami-parentage-replay object --bucket trail-logs --key a.json.gz --key b.json.gz --write`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObject(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Bucket, "bucket", "", "bucket holding the log objects (required)")
	_ = cmd.MarkFlagRequired("bucket")
	cmd.Flags().StringArrayVar(&opts.Keys, "key", nil, "object key, repeatable (required)")
	_ = cmd.MarkFlagRequired("key")
	cmd.Flags().StringVar(&opts.Region, "region", "", "AWS region (default from the SDK chain)")

	return cmd
}

func runObject(ctx context.Context, cmd *cobra.Command, opts *ObjectOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := loadOptions(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if opts.Region != "" {
		cfg.AWS.Region = opts.Region
	}

	fetcher, err := opts.newS3Source(ctx, cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize s3 client", err)
	}

	locs := make([]models.ObjectLocator, 0, len(opts.Keys))
	for _, key := range opts.Keys {
		if key == "" {
			return WrapExitError(ExitCommandError, "invalid flags", fmt.Errorf("--key must not be empty"))
		}
		locs = append(locs, models.ObjectLocator{Bucket: opts.Bucket, Key: key})
	}

	return runReplay(ctx, cmd, opts.RootOptions, cfg, replaySource{
		fetcher:       fetcher,
		notifications: locs,
	}, logger)
}
