package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/apigatewayv2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudwatch"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lambda"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// CreateInferenceAPI exposes the inference Lambda as POST /generate.
// The integration uses payload format 1.0 so the function receives httpMethod and body.
func CreateInferenceAPI(
	ctx *pulumi.Context,
	stage string,
	inferenceLambda *lambda.Function,
	accessLogGroup *cloudwatch.LogGroup,
	commonTags pulumi.StringMap,
) (*apigatewayv2.Api, *apigatewayv2.Stage, error) {

	// Create HTTP API
	api, err := apigatewayv2.NewApi(ctx, fmt.Sprintf("sd-endpoint-api-%s", stage), &apigatewayv2.ApiArgs{
		Name:         pulumi.String(fmt.Sprintf("sd-endpoint-api-%s", stage)),
		ProtocolType: pulumi.String("HTTP"),
		Description:  pulumi.String("Text-to-image generation API"),
		CorsConfiguration: &apigatewayv2.ApiCorsConfigurationArgs{
			AllowOrigins: pulumi.StringArray{pulumi.String("*")},
			AllowMethods: pulumi.StringArray{
				pulumi.String("POST"),
				pulumi.String("OPTIONS"),
			},
			AllowHeaders: pulumi.StringArray{
				pulumi.String("Content-Type"),
			},
			MaxAge: pulumi.Int(300),
		},
		Tags: commonTags,
	})
	if err != nil {
		return nil, nil, err
	}

	// Lambda permission for API Gateway
	_, err = lambda.NewPermission(ctx, fmt.Sprintf("sd-endpoint-inference-apigw-permission-%s", stage), &lambda.PermissionArgs{
		Action:    pulumi.String("lambda:InvokeFunction"),
		Function:  inferenceLambda.Name,
		Principal: pulumi.String("apigateway.amazonaws.com"),
		SourceArn: api.ExecutionArn.ApplyT(func(arn string) string {
			return fmt.Sprintf("%s/*/*", arn)
		}).(pulumi.StringOutput),
	})
	if err != nil {
		return nil, nil, err
	}

	// API Gateway Integration with Lambda
	integration, err := apigatewayv2.NewIntegration(ctx, fmt.Sprintf("sd-endpoint-api-integration-%s", stage), &apigatewayv2.IntegrationArgs{
		ApiId:                api.ID(),
		IntegrationType:      pulumi.String("AWS_PROXY"),
		IntegrationUri:       inferenceLambda.Arn,
		IntegrationMethod:    pulumi.String("POST"),
		PayloadFormatVersion: pulumi.String("1.0"),
		TimeoutMilliseconds:  pulumi.Int(30000),
	})
	if err != nil {
		return nil, nil, err
	}

	_, err = apigatewayv2.NewRoute(ctx, fmt.Sprintf("sd-endpoint-api-generate-route-%s", stage), &apigatewayv2.RouteArgs{
		ApiId:    api.ID(),
		RouteKey: pulumi.String("POST /generate"),
		Target: integration.ID().ApplyT(func(id string) string {
			return fmt.Sprintf("integrations/%s", id)
		}).(pulumi.StringOutput),
	})
	if err != nil {
		return nil, nil, err
	}

	// Auto-deploy stage
	apiStage, err := apigatewayv2.NewStage(ctx, fmt.Sprintf("sd-endpoint-api-stage-%s", stage), &apigatewayv2.StageArgs{
		ApiId:      api.ID(),
		Name:       pulumi.String("$default"),
		AutoDeploy: pulumi.Bool(true),
		AccessLogSettings: &apigatewayv2.StageAccessLogSettingsArgs{
			DestinationArn: accessLogGroup.Arn,
			Format:         pulumi.String(`{"requestId":"$context.requestId","ip":"$context.identity.sourceIp","requestTime":"$context.requestTime","httpMethod":"$context.httpMethod","routeKey":"$context.routeKey","status":"$context.status","integrationLatency":"$context.integrationLatency","responseLength":"$context.responseLength"}`),
		},
		DefaultRouteSettings: &apigatewayv2.StageDefaultRouteSettingsArgs{
			ThrottlingBurstLimit: pulumi.Int(10),
			ThrottlingRateLimit:  pulumi.Float64(5),
		},
		Tags: commonTags,
	})
	if err != nil {
		return nil, nil, err
	}

	return api, apiStage, nil
}
