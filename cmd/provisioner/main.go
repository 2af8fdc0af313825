package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/jrzesz33/sd_endpoint/internal/jumpstart"
	"github.com/jrzesz33/sd_endpoint/internal/logging"
	"github.com/jrzesz33/sd_endpoint/internal/messaging"
	"github.com/jrzesz33/sd_endpoint/internal/notification"
	"github.com/jrzesz33/sd_endpoint/internal/provisioner"
	"github.com/jrzesz33/sd_endpoint/internal/repository"
	smadapter "github.com/jrzesz33/sd_endpoint/internal/sagemaker"
	appconfig "github.com/jrzesz33/sd_endpoint/pkg/config"
)

func main() {
	// Load configuration
	cfg := appconfig.MustLoad()

	// Setup structured logging
	logger := logging.NewLogger(os.Stdout, logging.GetLogLevel(), "provisioner", cfg.Stage.String())
	slog.SetDefault(logger)

	if err := cfg.ValidateProvisioner(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	logger.Info("endpoint provisioner lambda starting",
		slog.String("region", cfg.AWSRegion),
		slog.String("model_id", cfg.ModelID),
		slog.String("instance_type", cfg.InstanceType),
		slog.Duration("provision_timeout", cfg.ProvisionTimeout),
	)

	// Initialize AWS SDK
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		logger.Error("failed to load AWS config", slog.String("error", err.Error()))
		panic(fmt.Sprintf("failed to load AWS config: %v", err))
	}

	resolver, err := jumpstart.NewResolver(jumpstart.ResolverConfig{
		Client:           s3.NewFromConfig(awsCfg),
		Region:           cfg.AWSRegion,
		Bucket:           cfg.JumpStartBucket,
		ImageURIOverride: cfg.InferenceImageURI,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("failed to create model resolver", slog.String("error", err.Error()))
		panic(fmt.Sprintf("failed to create model resolver: %v", err))
	}

	provider := smadapter.NewClient(smadapter.ClientConfig{
		API:      sagemaker.NewFromConfig(awsCfg),
		Resolver: resolver,
		Project:  fmt.Sprintf("sd-endpoint-%s", cfg.Stage),
		Logger:   logger,
	})

	pcfg := provisioner.Config{
		Provider:       provider,
		Defaults:       cfg.EndpointDefaults(),
		NamePrefix:     cfg.EndpointNamePrefix,
		PollInterval:   cfg.PollInterval,
		Timeout:        cfg.ProvisionTimeout,
		DeadlineMargin: cfg.DeadlineMargin,
		Logger:         logger,
	}

	// Audit and lifecycle notifications are optional
	if cfg.AuditTableName != "" {
		pcfg.Audit = repository.NewDynamoDBEventRepository(dynamodb.NewFromConfig(awsCfg), cfg.AuditTableName)
	}
	var publishers messaging.FanOut
	if cfg.LifecycleTopicArn != "" {
		publishers = append(publishers, messaging.NewSNSClient(sns.NewFromConfig(awsCfg), cfg.LifecycleTopicArn, cfg.Stage, logger))
	}
	if cfg.NtfyURL != "" {
		publishers = append(publishers, notification.NewNtfyClient(notification.NtfyClientConfig{
			BaseURL: cfg.NtfyURL,
			Logger:  logger,
		}))
	}
	if len(publishers) > 0 {
		pcfg.Publisher = publishers
	}

	p := provisioner.NewProvisioner(pcfg)

	// Start Lambda handler; LambdaWrap reports the outcome to CloudFormation
	lambda.Start(cfn.LambdaWrap(p.HandleEvent))
}
