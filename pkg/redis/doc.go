// Package redis connects to the Redis server that carries cross-process
// broadcasts when the service runs more than one instance.
//
// Connect parses the URL, pings with retry and returns a ready client:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	layer := broadcast.NewRedisLayer(client)
//
// Healthcheck adapts the client to the readiness check. A failed ping wraps
// ErrHealthcheckFailed and names the server address.
package redis
