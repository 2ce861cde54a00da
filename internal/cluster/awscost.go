package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"

	"go.uber.org/zap"
)

const (
	costCacheTTL           = 24 * time.Hour
	credentialCheckTimeout = 3 * time.Second
)

// ErrAWSCredentials is returned when no AWS credentials can be resolved.
var ErrAWSCredentials = errors.New("AWS credentials not found; set AWS_PROFILE, run 'aws sso login', or configure ~/.aws/credentials")

type ec2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

type pricingAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// CostResolver resolves the on-demand hourly price of the EC2 instance
// backing a running node, for telemetry only. It never feeds the placement
// decision.
type CostResolver struct {
	ec2Client     ec2API
	pricingClient pricingAPI
	region        string
	cache         *fileCache
	logger        *zap.SugaredLogger
}

// NewCostResolver creates a resolver using the default AWS SDK config
// chain. IMDS is disabled to avoid long timeouts when running off-cluster.
func NewCostResolver(ctx context.Context, region, cacheDir string, logger *zap.SugaredLogger) (*CostResolver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithEC2IMDSClientEnableState(imds.ClientDisabled),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAWSCredentials, err)
	}

	credCtx, cancel := context.WithTimeout(ctx, credentialCheckTimeout)
	defer cancel()
	if _, err := cfg.Credentials.Retrieve(credCtx); err != nil {
		return nil, ErrAWSCredentials
	}

	pricingCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithEC2IMDSClientEnableState(imds.ClientDisabled),
	)
	if err != nil {
		return nil, fmt.Errorf("loading pricing config: %w", err)
	}

	var cache *fileCache
	if cacheDir != "" {
		cache = newFileCache(cacheDir)
	}

	return &CostResolver{
		ec2Client:     ec2.NewFromConfig(cfg),
		pricingClient: pricing.NewFromConfig(pricingCfg),
		region:        region,
		cache:         cache,
		logger:        logger,
	}, nil
}

// ResolveHourlyCost returns the on-demand hourly price for the instance
// backing providerID (a "aws:///<az>/<instance-id>" node.Spec.ProviderID).
func (r *CostResolver) ResolveHourlyCost(ctx context.Context, providerID string) (float64, error) {
	instanceID := instanceIDFromProviderID(providerID)
	if instanceID == "" {
		return 0, fmt.Errorf("provider id %q is not an EC2 instance", providerID)
	}

	instanceType, err := r.instanceType(ctx, instanceID)
	if err != nil {
		return 0, err
	}

	cacheKey := "price-" + instanceType
	var cached float64
	if r.cache != nil && r.cache.get(cacheKey, costCacheTTL, &cached) {
		return cached, nil
	}

	price, err := r.onDemandPrice(ctx, instanceType)
	if err != nil {
		return 0, err
	}

	if r.cache != nil {
		if err := r.cache.set(cacheKey, price); err != nil {
			r.logger.Warnw("failed to cache instance price", "instance_type", instanceType, "err", err)
		}
	}
	return price, nil
}

func (r *CostResolver) instanceType(ctx context.Context, instanceID string) (string, error) {
	out, err := r.ec2Client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return "", fmt.Errorf("describing instance %s: %w", instanceID, err)
	}
	for _, res := range out.Reservations {
		for _, inst := range res.Instances {
			if inst.InstanceType != "" {
				return string(inst.InstanceType), nil
			}
		}
	}
	return "", fmt.Errorf("instance %s not found", instanceID)
}

func (r *CostResolver) onDemandPrice(ctx context.Context, instanceType string) (float64, error) {
	out, err := r.pricingClient.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: awsString("AmazonEC2"),
		Filters: []pricingtypes.Filter{
			{Type: pricingtypes.FilterTypeTermMatch, Field: awsString("instanceType"), Value: awsString(instanceType)},
			{Type: pricingtypes.FilterTypeTermMatch, Field: awsString("location"), Value: awsString(regionToLocation(r.region))},
			{Type: pricingtypes.FilterTypeTermMatch, Field: awsString("operatingSystem"), Value: awsString("Linux")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: awsString("tenancy"), Value: awsString("Shared")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: awsString("preInstalledSw"), Value: awsString("NA")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: awsString("capacitystatus"), Value: awsString("Used")},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("querying pricing for %s: %w", instanceType, err)
	}
	if len(out.PriceList) == 0 {
		return 0, fmt.Errorf("no pricing found for %s", instanceType)
	}
	return parseOnDemandPrice(out.PriceList[0])
}

// priceListProduct mirrors the small slice of the AWS Price List JSON shape
// needed to pull the USD on-demand hourly rate.
type priceListProduct struct {
	Terms struct {
		OnDemand map[string]struct {
			PriceDimensions map[string]struct {
				PricePerUnit struct {
					USD string `json:"USD"`
				} `json:"pricePerUnit"`
			} `json:"priceDimensions"`
		} `json:"OnDemand"`
	} `json:"terms"`
}

func parseOnDemandPrice(raw string) (float64, error) {
	var product priceListProduct
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		return 0, fmt.Errorf("parsing price list entry: %w", err)
	}
	for _, term := range product.Terms.OnDemand {
		for _, dim := range term.PriceDimensions {
			var price float64
			if _, err := fmt.Sscanf(dim.PricePerUnit.USD, "%f", &price); err == nil {
				return price, nil
			}
		}
	}
	return 0, errors.New("no USD price dimension found")
}

func instanceIDFromProviderID(providerID string) string {
	parts := strings.Split(providerID, "/")
	if len(parts) == 0 {
		return ""
	}
	last := parts[len(parts)-1]
	if strings.HasPrefix(last, "i-") {
		return last
	}
	return ""
}

var regionLocations = map[string]string{
	"us-east-1":    "US East (N. Virginia)",
	"us-east-2":    "US East (Ohio)",
	"us-west-1":    "US West (N. California)",
	"us-west-2":    "US West (Oregon)",
	"eu-west-1":    "EU (Ireland)",
	"eu-central-1": "EU (Frankfurt)",
}

func regionToLocation(region string) string {
	if loc, ok := regionLocations[region]; ok {
		return loc
	}
	return region
}

func awsString(v string) *string { return &v }
