package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application settings, loaded once at startup by NewConfig.
type Config struct {
	Env              string // DEV (local; default), TEST, QA, PROD
	Debug            bool
	TestMode         bool
	Build            string
	AppName          string
	SecretKey        string
	FrontendBaseURL  string
	DefaultFromEmail mail.Address
	SendgridApiKey   string
	RollbarToken     string

	Server struct {
		Host               string
		DebugHost          string
		CORSOrigins        []string
		ReadTimeout        time.Duration
		WriteTimeout       time.Duration
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	Database struct {
		Engine         string // mongo | memory
		URI            string
		Name           string
		ConnectTimeout time.Duration
	}
}

// NewConfig reads the configuration from the environment,
// after loading config/.env.<env> if that file exists.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(os.Getenv("CONFIG_DIR"), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Barangay")
	v.SetDefault("secretKey", "k2v#9q!xj7e%t5m@d(w3nb)8s*zh4r^fy6pl0cg$u1")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", ":5000")
	v.SetDefault("server.debugHost", ":5001")
	v.SetDefault("server.corsOrigins", []string{"*"})
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("database.engine", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "barangay")
	v.SetDefault("database.connectTimeout", 10*time.Second)

	// names used by existing deployments
	v.AutomaticEnv()
	_ = v.BindEnv("secretKey", "JWT_SECRET")
	_ = v.BindEnv("server.jwtExpirationDelta", "JWT_EXPIRATION")
	_ = v.BindEnv("database.uri", "MONGODB_URI")

	conf := &Config{
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        env == "TEST",
		Build:           v.GetString("build"),
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),
	}

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}
	conf.DefaultFromEmail = *from

	conf.Server.Host = v.GetString("server.host")
	if port := os.Getenv("PORT"); port != "" {
		conf.Server.Host = ":" + port
	}
	conf.Server.DebugHost = v.GetString("server.debugHost")
	conf.Server.CORSOrigins = v.GetStringSlice("server.corsOrigins")
	conf.Server.ReadTimeout = v.GetDuration("server.readTimeout")
	conf.Server.WriteTimeout = v.GetDuration("server.writeTimeout")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("server.jwtExpirationDelta")

	conf.Database.Engine = strings.ToLower(v.GetString("database.engine"))
	conf.Database.URI = v.GetString("database.uri")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.ConnectTimeout = v.GetDuration("database.connectTimeout")

	return conf
}

// NewTestConfig returns the configuration used by the test suites.
func NewTestConfig() *Config {
	conf := &Config{
		Env:              "TEST",
		Debug:            false,
		TestMode:         true,
		Build:            "test",
		AppName:          "Barangay",
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Barangay", Address: "noreply@localhost"},
	}
	conf.Server.Host = ":5000"
	conf.Server.CORSOrigins = []string{"*"}
	conf.Server.ShutdownTimeout = time.Second
	conf.Server.JWTExpirationDelta = 24 * time.Hour
	conf.Database.Engine = "memory"
	conf.Database.Name = "barangay_test"
	return conf
}
