// Package redis connects to Redis with retries and exposes a health probe.
//
// It wraps github.com/redis/go-redis/v9. Configuration comes from Config,
// usually filled from the environment with pkg/config:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	cache := landlord.NewRedisCache(client)
package redis
