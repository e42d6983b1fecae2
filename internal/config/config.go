package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the binaries need to wire the engine.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka" validate:"required"`
	Ops      OpsConfig      `mapstructure:"ops" validate:"required"`
	Logging  LoggingConfig  `mapstructure:"logging" validate:"required"`
	Leave    LeaveConfig    `mapstructure:"leave" validate:"required"`
	Payroll  PayrollConfig  `mapstructure:"payroll" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            string        `mapstructure:"port" validate:"required"`
	User            string        `mapstructure:"user" validate:"required"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxRetries      int           `mapstructure:"max_retries" validate:"gte=1"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN renders the libpq-style connection string gorm's postgres driver expects.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	MaxRetries int    `mapstructure:"max_retries" validate:"gte=1"`
}

type KafkaConfig struct {
	Brokers            []string      `mapstructure:"brokers" validate:"required,min=1"`
	EmployeeGroupID    string        `mapstructure:"employee_group_id" validate:"required"`
	PayrollRunGroupID  string        `mapstructure:"payroll_run_group_id" validate:"required"`
	OutboxPollInterval time.Duration `mapstructure:"outbox_poll_interval"`
	OutboxBatchSize    int           `mapstructure:"outbox_batch_size" validate:"gte=1"`
	MaxRetries         int           `mapstructure:"max_retries" validate:"gte=1"`
}

type OpsConfig struct {
	Port         string        `mapstructure:"port" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// LeaveConfig is the annual entitlement a fresh or reset balance starts from.
type LeaveConfig struct {
	EarnedLeave        int `mapstructure:"earned_leave" validate:"gte=0"`
	CasualLeave        int `mapstructure:"casual_leave" validate:"gte=0"`
	SickLeave          int `mapstructure:"sick_leave" validate:"gte=0"`
	MaxConflictRetries int `mapstructure:"max_conflict_retries" validate:"gte=0"`
}

type PayrollConfig struct {
	Workers       int           `mapstructure:"workers" validate:"gte=1"`
	SystemActorID string        `mapstructure:"system_actor_id" validate:"omitempty,uuid"`
	PayslipDir    string        `mapstructure:"payslip_dir" validate:"required"`
	LockTTL       time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
	RunTimeout    time.Duration `mapstructure:"run_timeout" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "hris")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_retries", 5)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.max_retries", 5)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.employee_group_id", "go-hris-onboarding")
	v.SetDefault("kafka.payroll_run_group_id", "go-hris-payroll-run")
	v.SetDefault("kafka.outbox_poll_interval", 3*time.Second)
	v.SetDefault("kafka.outbox_batch_size", 50)
	v.SetDefault("kafka.max_retries", 5)

	v.SetDefault("ops.port", "3000")
	v.SetDefault("ops.read_timeout", 5*time.Second)
	v.SetDefault("ops.write_timeout", 10*time.Second)
	v.SetDefault("ops.idle_timeout", 60*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("leave.earned_leave", 15)
	v.SetDefault("leave.casual_leave", 12)
	v.SetDefault("leave.sick_leave", 12)
	v.SetDefault("leave.max_conflict_retries", 5)

	v.SetDefault("payroll.workers", 8)
	v.SetDefault("payroll.system_actor_id", "")
	v.SetDefault("payroll.payslip_dir", "./var/payslips")
	// the lock is held across payslip generation and notification
	v.SetDefault("payroll.lock_ttl", 30*time.Second)
	v.SetDefault("payroll.run_timeout", 30*time.Minute)
}

// Load reads an optional .env file, an optional config file and HRIS_* environment
// variables (HRIS_DATABASE_HOST, HRIS_PAYROLL_WORKERS, ...), in increasing priority.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HRIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
