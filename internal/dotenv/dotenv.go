// Package dotenv reads, validates and scaffolds the application's .env file.
package dotenv

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ErrExists is returned by InitFromTemplate when the destination already
// exists and overwriting was not requested.
var ErrExists = errors.New("env file already exists")

// Settings mirrors the values the journal API reads from its .env file.
type Settings struct {
	DatabaseURL              string `env:"DATABASE_URL" validate:"required,url"`
	RedisURL                 string `env:"REDIS_URL" validate:"required,url"`
	SecretKey                string `env:"SECRET_KEY" validate:"required"`
	Algorithm                string `env:"ALGORITHM" validate:"oneof=HS256 HS384 HS512"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" validate:"gt=0"`

	FirebaseServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH" validate:"required"`

	S3BucketName       string `env:"S3_BUCKET_NAME"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" validate:"required_with=S3BucketName"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" validate:"required_with=S3BucketName"`
	AWSRegion          string `env:"AWS_REGION"`

	AppName string `env:"APP_NAME"`
	Debug   bool   `env:"DEBUG"`
}

var defaults = map[string]string{
	"REDIS_URL":                   "redis://localhost:6379",
	"ALGORITHM":                   "HS256",
	"ACCESS_TOKEN_EXPIRE_MINUTES": "10080",
	"AWS_REGION":                  "us-east-1",
	"APP_NAME":                    "Reflective Journal",
	"DEBUG":                       "false",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return v
}

// Read parses the env file at path. Keys are upper-cased so lookups match
// the case-insensitive behaviour of the application's settings loader.
func Read(path string) (map[string]string, error) {
	raw, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	env := make(map[string]string, len(raw))
	for k, v := range raw {
		env[strings.ToUpper(k)] = v
	}
	return env, nil
}

// LoadSettings reads and validates the env file at path.
func LoadSettings(path string) (*Settings, error) {
	env, err := Read(path)
	if err != nil {
		return nil, err
	}
	return ParseSettings(env)
}

// ParseSettings builds Settings from env, applying the application's
// defaults for unset keys, and validates the result.
func ParseSettings(env map[string]string) (*Settings, error) {
	get := func(key string) string {
		if v, ok := env[key]; ok && v != "" {
			return v
		}
		return defaults[key]
	}

	s := &Settings{
		DatabaseURL:                get("DATABASE_URL"),
		RedisURL:                   get("REDIS_URL"),
		SecretKey:                  get("SECRET_KEY"),
		Algorithm:                  get("ALGORITHM"),
		FirebaseServiceAccountPath: get("FIREBASE_SERVICE_ACCOUNT_PATH"),
		S3BucketName:               get("S3_BUCKET_NAME"),
		AWSAccessKeyID:             get("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey:         get("AWS_SECRET_ACCESS_KEY"),
		AWSRegion:                  get("AWS_REGION"),
		AppName:                    get("APP_NAME"),
	}

	minutes, err := strconv.Atoi(get("ACCESS_TOKEN_EXPIRE_MINUTES"))
	if err != nil {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
	}
	s.AccessTokenExpireMinutes = minutes

	debug, err := strconv.ParseBool(get("DEBUG"))
	if err != nil {
		return nil, fmt.Errorf("DEBUG: %w", err)
	}
	s.Debug = debug

	if err := validate.Struct(s); err != nil {
		return nil, describe(err)
	}
	return s, nil
}

// describe turns validator errors into one line per offending key.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_with":
			msgs = append(msgs, fe.Field()+" is required")
		case "url":
			msgs = append(msgs, fe.Field()+" must be a URL")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// InitFromTemplate writes dst from the template env file. An empty
// SECRET_KEY is replaced with a random 32-byte hex string. The written file
// is readable by the owner only.
func InitFromTemplate(template, dst string, force bool) (map[string]string, error) {
	if _, err := os.Stat(dst); err == nil && !force {
		return nil, fmt.Errorf("%s: %w", dst, ErrExists)
	}

	env, err := godotenv.Read(template)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", template, err)
	}

	if env["SECRET_KEY"] == "" {
		key, err := randomKey()
		if err != nil {
			return nil, err
		}
		env["SECRET_KEY"] = key
	}

	if err := godotenv.Write(env, dst); err != nil {
		return nil, fmt.Errorf("writing %s: %w", dst, err)
	}
	if err := os.Chmod(dst, 0o600); err != nil {
		return nil, fmt.Errorf("chmod %s: %w", dst, err)
	}
	return env, nil
}

func randomKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
