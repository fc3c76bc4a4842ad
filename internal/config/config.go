package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries all environment-driven settings for the worker and the
// notifier. Every multiplier defaults to 0.0 when unset so a missing rate
// degrades to "no bonus" instead of failing startup.
type Config struct {
	Project   Project
	Docstore  Docstore
	Queue     Queue
	Warehouse Warehouse
	Rates     Rates
	HTTP      HTTP
	Notifier  Notifier
}

type Project struct {
	ID               string
	SourceIdentifier string
	SchemaVersion    string
}

type Docstore struct {
	Bucket string
}

type Queue struct {
	SubscriptionID string
}

type Warehouse struct {
	DatasetID       string
	OrdersTable     string
	OrderItemsTable string
}

type Rates struct {
	Loyalty   float64
	Morning   float64
	HappyHour float64
}

type HTTP struct {
	Addr string
}

type Notifier struct {
	ReportTable      string
	ContactsTable    string
	MailAPIURL       string
	MailAPIToken     string
	TemplateID       string
	FromEmail        string
	UnsubscribeGroup int
	TestMode         bool
	TestRecipient    string
	SendLimit        int
}

// New reads configuration from the environment, loading a local .env file
// first when one exists.
func New() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("SUBSCRIPTION_ID", "order-ready-sub")
	v.SetDefault("ORDERS_TABLE", "orders")
	v.SetDefault("ORDER_ITEMS_TABLE", "order_items")
	v.SetDefault("LOYALTY_MULTIPLIER", 0.0)
	v.SetDefault("MORNING_MULTIPLIER", 0.0)
	v.SetDefault("HAPPYHOUR_MULTIPLIER", 0.0)
	v.SetDefault("MAIL_SEND_LIMIT", 5)
	v.SetDefault("MAIL_UNSUBSCRIBE_GROUP", 0)

	cfg := Config{
		Project: Project{
			ID:               v.GetString("PROJECT_ID"),
			SourceIdentifier: v.GetString("SOURCE_IDENTIFIER"),
			SchemaVersion:    v.GetString("SCHEMA_VERSION"),
		},
		Docstore: Docstore{
			Bucket: v.GetString("BUCKET_NAME"),
		},
		Queue: Queue{
			SubscriptionID: v.GetString("SUBSCRIPTION_ID"),
		},
		Warehouse: Warehouse{
			DatasetID:       v.GetString("DATASET_ID"),
			OrdersTable:     v.GetString("ORDERS_TABLE"),
			OrderItemsTable: v.GetString("ORDER_ITEMS_TABLE"),
		},
		Rates: Rates{
			Loyalty:   v.GetFloat64("LOYALTY_MULTIPLIER"),
			Morning:   v.GetFloat64("MORNING_MULTIPLIER"),
			HappyHour: v.GetFloat64("HAPPYHOUR_MULTIPLIER"),
		},
		HTTP: HTTP{
			Addr: v.GetString("HTTP_ADDR"),
		},
		Notifier: Notifier{
			ReportTable:      v.GetString("REPORT_TABLE"),
			ContactsTable:    v.GetString("CONTACTS_TABLE"),
			MailAPIURL:       v.GetString("MAIL_API_URL"),
			MailAPIToken:     v.GetString("MAIL_API_TOKEN"),
			TemplateID:       v.GetString("MAIL_TEMPLATE_ID"),
			FromEmail:        v.GetString("MAIL_FROM"),
			UnsubscribeGroup: v.GetInt("MAIL_UNSUBSCRIBE_GROUP"),
			TestMode:         v.GetBool("MAIL_TEST_MODE"),
			TestRecipient:    v.GetString("MAIL_TEST_RECIPIENT"),
			SendLimit:        v.GetInt("MAIL_SEND_LIMIT"),
		},
	}

	if cfg.Project.ID == "" {
		return Config{}, fmt.Errorf("PROJECT_ID is required")
	}

	return cfg, nil
}
