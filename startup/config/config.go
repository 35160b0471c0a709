package config

import "os"

type Config struct {
	Port            string
	HomeNestDBHost  string
	HomeNestDBPort  string
	ImageCacheHost  string
	ImageCachePort  string
	HDFSUri         string
	JaegerAddress   string
	SecretKey       string
	ClientOrigin    string
	AuthProviderURL string
	AuthProviderKey string
	LogFilePath     string
}

func NewConfig() *Config {
	return &Config{
		Port:            os.Getenv("HOMENEST_SERVICE_PORT"),
		HomeNestDBHost:  os.Getenv("HOMENEST_DB_HOST"),
		HomeNestDBPort:  os.Getenv("HOMENEST_DB_PORT"),
		ImageCacheHost:  os.Getenv("IMAGE_CACHE_HOST"),
		ImageCachePort:  os.Getenv("IMAGE_CACHE_PORT"),
		HDFSUri:         os.Getenv("HDFS_URI"),
		JaegerAddress:   os.Getenv("JAEGER_ADDRESS"),
		SecretKey:       os.Getenv("SECRET_KEY"),
		ClientOrigin:    os.Getenv("CLIENT_ORIGIN"),
		AuthProviderURL: os.Getenv("AUTH_PROVIDER_URL"),
		AuthProviderKey: os.Getenv("AUTH_PROVIDER_KEY"),
		LogFilePath:     os.Getenv("LOG_FILE_PATH"),
	}
}
