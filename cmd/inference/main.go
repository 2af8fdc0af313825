package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/jrzesz33/sd_endpoint/internal/inference"
	"github.com/jrzesz33/sd_endpoint/internal/logging"
	"github.com/jrzesz33/sd_endpoint/internal/repository"
	appconfig "github.com/jrzesz33/sd_endpoint/pkg/config"
)

func main() {
	// Load configuration
	cfg := appconfig.MustLoad()

	// Setup structured logging
	logger := logging.NewLogger(os.Stdout, logging.GetLogLevel(), "inference", cfg.Stage.String())
	slog.SetDefault(logger)

	if err := cfg.ValidateInference(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	logger.Info("inference proxy lambda starting",
		slog.String("endpoint_name", cfg.EndpointName),
		slog.String("output_bucket", cfg.OutputBucket),
	)

	// Initialize AWS SDK
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		logger.Error("failed to load AWS config", slog.String("error", err.Error()))
		panic(fmt.Sprintf("failed to load AWS config: %v", err))
	}

	s3Client := s3.NewFromConfig(awsCfg)

	hcfg := inference.Config{
		Runtime:      sagemakerruntime.NewFromConfig(awsCfg),
		Storage:      s3Client,
		Presigner:    s3.NewPresignClient(s3Client),
		EndpointName: cfg.EndpointName,
		Bucket:       cfg.OutputBucket,
		PresignTTL:   cfg.PresignTTL,
		Logger:       logger,
	}
	if cfg.GenerationsTableName != "" {
		hcfg.Generations = repository.NewDynamoDBGenerationRepository(dynamodb.NewFromConfig(awsCfg), cfg.GenerationsTableName)
	}

	handler := inference.NewHandler(hcfg)

	// Start Lambda handler
	lambda.Start(handler.HandleRequest)
}
