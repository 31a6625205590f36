// Package redis connects to Redis, used to cache role oracle answers across
// dispatches.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
