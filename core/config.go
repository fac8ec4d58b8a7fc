package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string
		Build        string
		Env          string // DEV (local; default), TEST, QA, PROD
		Debug        bool
		TestMode     bool
		SecretKey    string
		WorkDir      string
		RollbarToken string
		FrontendURL  string

		PasswordResetTimeoutDelta time.Duration

		Org      OrgConfig
		Server   ServerConfig
		Database DatabaseConfig
		Email    EmailConfig
		AMQP     AMQPConfig
	}

	// OrgConfig holds what gets printed on vouchers and reports.
	OrgConfig struct {
		Name          string
		Branch        string
		ShortName     string // report footer
		PaymentHint   string
		LateFeePolicy string
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		FeedReloadTimeout         time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	EmailConfig struct {
		DefaultFromName    string
		DefaultFromAddress string
		SendgridApiKey     string
	}

	AMQPConfig struct {
		URL      string // events are not published when empty
		Exchange string
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s@%s/%s", c.Engine, c.User, c.Password, c.Address(), c.Name)
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.Email.DefaultFromName, Address: c.Email.DefaultFromAddress}
}

// NewConfig reads the configuration from the environment, falling back to
// config/.env.<env> and then to the defaults below.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Bursar")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "k2u8-sd)fq0w$+61=ml&zpa7(j!v)#*a9(#rb4h^$yxq1cz")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("frontendURL", "http://localhost:3000")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("orgName", "The Savvy School")
	v.SetDefault("orgBranch", "Quaid-e-Azam Campus")
	v.SetDefault("orgShortName", "Savvy School QAC")
	v.SetDefault("orgPaymentHint", "For Online Payment : EasyPaisa : 03XXXXXXXX")
	v.SetDefault("orgLateFeePolicy", "Late Fee 300 Per Day after Due Date")

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("feedReloadTimeout", 10*time.Second)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "bursar")
	v.SetDefault("dbUser", "bursar")
	v.SetDefault("dbPassword", "bursar")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "postgres")
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("defaultFromName", "Bursar")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("amqpURL", "")
	v.SetDefault("amqpExchange", "bursar.events")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	workDir := Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		WorkDir:      workDir,
		RollbarToken: v.GetString("rollbarToken"),
		FrontendURL:  v.GetString("frontendURL"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Org: OrgConfig{
			Name:          v.GetString("orgName"),
			Branch:        v.GetString("orgBranch"),
			ShortName:     v.GetString("orgShortName"),
			PaymentHint:   v.GetString("orgPaymentHint"),
			LateFeePolicy: v.GetString("orgLateFeePolicy"),
		},
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Address:                   v.GetString("serverAddress"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			FeedReloadTimeout:         v.GetDuration("feedReloadTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Email: EmailConfig{
			DefaultFromName:    v.GetString("defaultFromName"),
			DefaultFromAddress: v.GetString("defaultFromEmail"),
			SendgridApiKey:     v.GetString("sendgridApiKey"),
		},
		AMQP: AMQPConfig{
			URL:      v.GetString("amqpURL"),
			Exchange: v.GetString("amqpExchange"),
		},
	}
}
