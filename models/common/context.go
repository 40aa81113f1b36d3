package common

import (
	"fmt"

	"github.com/anecdotario/photo-services/network"
	"github.com/anecdotario/photo-services/util/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/op/go-logging"
)

// Context carries the config and the clients every pipeline component
// needs: the object store, the metadata repository, and the event
// queue. Build one per process, not per request.
type Context struct {
	Config      *Config
	Logger      *logging.Logger
	NSQClient   *network.NSQClient
	ObjectStore network.ObjectStore
	PhotoRepo   network.PhotoRepo
}

func NewContext() *Context {
	config := NewConfig()
	_logger := getLogger(config)
	return &Context{
		Config:      config,
		Logger:      _logger,
		NSQClient:   network.NewNSQClient(config.NsqURL),
		ObjectStore: getObjectStore(config),
		PhotoRepo:   getRedisClient(config),
	}
}

func getLogger(config *Config) *logging.Logger {
	log, _ := logger.InitLogger(config.LogDir, config.LogLevel)
	return log
}

func getRedisClient(config *Config) *network.RedisClient {
	return network.NewRedisClient(
		config.RedisURL,
		config.RedisPassword,
		config.RedisDefaultDB)
}

func getObjectStore(config *Config) *network.MinioStore {
	creds := config.S3Credentials
	client, err := minio.New(
		creds.Host,
		&minio.Options{
			Creds:  credentials.NewStaticV4(creds.KeyID, creds.SecretKey, ""),
			Secure: config.UseSSL,
		})
	if err != nil {
		panic(fmt.Sprintf("Could not initialize S3 client: %v", err))
	}
	return network.NewMinioStore(client, config.PhotoBucket, config.CacheControl)
}
