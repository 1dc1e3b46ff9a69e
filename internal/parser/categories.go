package parser

import "strings"

const (
	CategoryCompute     = "compute"
	CategoryDatabase    = "database"
	CategoryCache       = "cache"
	CategoryStorage     = "storage"
	CategoryNetwork     = "network"
	CategoryMessaging   = "messaging"
	CategoryStakeholder = "stakeholder"
	CategoryOther       = "other"
)

var archetypeCategories = map[string]string{
	"server":                            CategoryCompute,
	"vm":                                CategoryCompute,
	"web_server":                        CategoryCompute,
	"app_server":                        CategoryCompute,
	"api_server":                        CategoryCompute,
	"microservice":                      CategoryCompute,
	"worker":                            CategoryCompute,
	"container":                         CategoryCompute,
	"lambda":                            CategoryCompute,
	"function":                          CategoryCompute,
	"aws_instance":                      CategoryCompute,
	"aws_lambda_function":               CategoryCompute,
	"aws_ecs_service":                   CategoryCompute,
	"aws_eks_cluster":                   CategoryCompute,
	"aws_autoscaling_group":             CategoryCompute,
	"google_compute_instance":           CategoryCompute,
	"google_cloud_run_service":          CategoryCompute,
	"azurerm_linux_virtual_machine":     CategoryCompute,
	"database":                          CategoryDatabase,
	"postgres":                          CategoryDatabase,
	"mysql":                             CategoryDatabase,
	"mongodb":                           CategoryDatabase,
	"dynamodb":                          CategoryDatabase,
	"aws_db_instance":                   CategoryDatabase,
	"aws_rds_cluster":                   CategoryDatabase,
	"aws_dynamodb_table":                CategoryDatabase,
	"google_sql_database_instance":      CategoryDatabase,
	"azurerm_postgresql_server":         CategoryDatabase,
	"cache":                             CategoryCache,
	"redis":                             CategoryCache,
	"memcached":                         CategoryCache,
	"aws_elasticache_cluster":           CategoryCache,
	"aws_elasticache_replication_group": CategoryCache,
	"storage":                           CategoryStorage,
	"object_storage":                    CategoryStorage,
	"s3":                                CategoryStorage,
	"blob":                              CategoryStorage,
	"aws_s3_bucket":                     CategoryStorage,
	"aws_efs_file_system":               CategoryStorage,
	"google_storage_bucket":             CategoryStorage,
	"load_balancer":                     CategoryNetwork,
	"lb":                                CategoryNetwork,
	"cdn":                               CategoryNetwork,
	"api_gateway":                       CategoryNetwork,
	"gateway":                           CategoryNetwork,
	"dns":                               CategoryNetwork,
	"aws_lb":                            CategoryNetwork,
	"aws_alb":                           CategoryNetwork,
	"aws_elb":                           CategoryNetwork,
	"aws_vpc":                           CategoryNetwork,
	"aws_subnet":                        CategoryNetwork,
	"aws_security_group":                CategoryNetwork,
	"aws_cloudfront_distribution":       CategoryNetwork,
	"aws_api_gateway_rest_api":          CategoryNetwork,
	"aws_route53_record":                CategoryNetwork,
	"queue":                             CategoryMessaging,
	"message_queue":                     CategoryMessaging,
	"kafka":                             CategoryMessaging,
	"pubsub":                            CategoryMessaging,
	"aws_sqs_queue":                     CategoryMessaging,
	"aws_sns_topic":                     CategoryMessaging,
	"aws_kinesis_stream":                CategoryMessaging,
	"google_pubsub_topic":               CategoryMessaging,
	"families":                          CategoryStakeholder,
	"users":                             CategoryStakeholder,
	"customer":                          CategoryStakeholder,
	"client":                            CategoryStakeholder,
	"stakeholder":                       CategoryStakeholder,
}

// keyword fallbacks, checked in order when the archetype is not listed.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"cache", CategoryCache},
	{"redis", CategoryCache},
	{"db", CategoryDatabase},
	{"database", CategoryDatabase},
	{"sql", CategoryDatabase},
	{"bucket", CategoryStorage},
	{"storage", CategoryStorage},
	{"queue", CategoryMessaging},
	{"topic", CategoryMessaging},
	{"stream", CategoryMessaging},
	{"balancer", CategoryNetwork},
	{"gateway", CategoryNetwork},
	{"cdn", CategoryNetwork},
	{"instance", CategoryCompute},
	{"server", CategoryCompute},
	{"function", CategoryCompute},
	{"service", CategoryCompute},
}

// CategoryFor infers a node category from its archetype. Unknown archetypes
// map to "other".
func CategoryFor(archetype string) string {
	key := strings.ToLower(strings.TrimSpace(archetype))
	if key == "" {
		return CategoryOther
	}
	if c, ok := archetypeCategories[key]; ok {
		return c
	}
	for _, kw := range categoryKeywords {
		if strings.Contains(key, kw.keyword) {
			return kw.category
		}
	}
	return CategoryOther
}
