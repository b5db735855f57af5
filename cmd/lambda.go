package cmd

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dmorgan81/imagegen/internal/handler"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Serve scheduled generations as an AWS Lambda function",
	Long: `Runs the headless handler under the Lambda runtime. Each invocation
generates one image, publishes it with its HTML page to the configured
bucket and refreshes the feed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, injector, err := setup(cmd.Context(), v)
		if err != nil {
			return err
		}

		h, err := do.Invoke[*handler.Handler](injector)
		if err != nil {
			return err
		}
		lambda.StartWithOptions(h.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
			_ = injector.Shutdown()
		}))
		return nil
	},
}

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Serve image pages as an S3 Object Lambda function",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, injector, err := setup(cmd.Context(), v)
		if err != nil {
			return err
		}

		h, err := do.Invoke[*handler.PageHandler](injector)
		if err != nil {
			return err
		}
		lambda.StartWithOptions(h.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
			_ = injector.Shutdown()
		}))
		return nil
	},
}
