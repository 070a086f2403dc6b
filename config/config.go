package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	Port        string
	StoreDriver string // mongo | mysql | memory

	MongoURI      string
	MongoDatabase string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool

	LogLevel    string
	Debug       bool // 是否开启调试模式
	FrontendURL string
	BackendURL  string

	MediaDriver         string // local | s3 | gcs | cloudinary
	LocalStoragePath    string
	S3Region            string
	S3Bucket            string
	GCSProjectID        string
	GCSBucketName       string
	GCSCredentialsFile  string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	RedisURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	RateLimitRPS   int
	RateLimitBurst int
	MaxBodyBytes   int64

	ReconcileSchedule string
}

// DefaultMaxBodyBytes 默认请求体上限 10MB
const DefaultMaxBodyBytes = 10 << 20

// AppConfig 是全局配置变量
var AppConfig Config

// Init 加载 .env 并从环境变量读取配置
func Init() error {
	if err := godotenv.Load(); err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	AppConfig = Config{
		Port:        getEnv("PORT", "5000"),
		StoreDriver: getEnv("STORE_DRIVER", "mongo"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "social"),

		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", ""),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		TokenTTL:     getEnvAsDuration("TOKEN_TTL", 15*24*time.Hour),
		CookieSecure: getEnvAsBool("COOKIE_SECURE", false),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Debug:       getEnvAsBool("DEBUG", false),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:5000"),

		MediaDriver:         getEnv("MEDIA_DRIVER", "local"),
		LocalStoragePath:    getEnv("LOCAL_STORAGE_PATH", "./uploads"),
		S3Region:            getEnv("S3_REGION", "us-west-2"),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		GCSProjectID:        getEnv("GCS_PROJECT_ID", ""),
		GCSBucketName:       getEnv("GCS_BUCKET_NAME", ""),
		GCSCredentialsFile:  getEnv("GCS_CREDENTIALS_FILE", ""),
		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		RateLimitRPS:   getEnvAsInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 10),
		MaxBodyBytes:   int64(getEnvAsInt("MAX_BODY_BYTES", DefaultMaxBodyBytes)),

		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", ""),
	}

	if err := validateConfig(&AppConfig); err != nil {
		return err
	}

	if AppConfig.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Printf("配置加载完成。存储：%s，媒体：%s", AppConfig.StoreDriver, AppConfig.MediaDriver)
	return nil
}

// MailEnabled 表示是否配置了 SMTP
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}

// MySQLDSN 拼接 MySQL 连接字符串
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(key, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	return defaultVal
}

func validateConfig(c *Config) error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT密钥未设置")
	}

	switch c.StoreDriver {
	case "mongo":
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("MongoDB 配置不完整")
		}
	case "mysql":
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("数据库配置不完整")
		}
	case "memory":
	default:
		return fmt.Errorf("未知的存储驱动: %s", c.StoreDriver)
	}

	switch c.MediaDriver {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3 配置不完整")
		}
	case "gcs":
		if c.GCSBucketName == "" {
			return fmt.Errorf("GCS 配置不完整")
		}
	case "cloudinary":
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return fmt.Errorf("Cloudinary 配置不完整")
		}
	default:
		return fmt.Errorf("未知的媒体驱动: %s", c.MediaDriver)
	}
	return nil
}
